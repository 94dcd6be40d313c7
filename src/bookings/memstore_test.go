package bookings

import (
	"context"
	"fmt"
	"galabook/src/models"
	"galabook/src/types"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memState struct {
	settings *models.InventorySetting
	buyers   map[string]*models.Buyer
	vouchers map[uint]*models.Voucher
	bookings map[uuid.UUID]*models.Booking
	tables   map[uuid.UUID]*models.Table
	codes    map[uuid.UUID][]*models.InviteCode
	nextID   uint
}

func newMemState() *memState {
	return &memState{
		buyers:   map[string]*models.Buyer{},
		vouchers: map[uint]*models.Voucher{},
		bookings: map[uuid.UUID]*models.Booking{},
		tables:   map[uuid.UUID]*models.Table{},
		codes:    map[uuid.UUID][]*models.InviteCode{},
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	c.nextID = st.nextID
	if st.settings != nil {
		s := *st.settings
		c.settings = &s
	}
	for k, v := range st.buyers {
		b := *v
		c.buyers[k] = &b
	}
	for k, v := range st.vouchers {
		vv := *v
		c.vouchers[k] = &vv
	}
	for k, v := range st.bookings {
		b := *v
		c.bookings[k] = &b
	}
	for k, v := range st.tables {
		t := *v
		c.tables[k] = &t
	}
	for k, v := range st.codes {
		codes := make([]*models.InviteCode, len(v))
		for i, code := range v {
			cc := *code
			codes[i] = &cc
		}
		c.codes[k] = codes
	}
	return c
}

func (st *memState) id() uint {
	st.nextID++
	return st.nextID
}

// memStore serializes every transaction behind one mutex, which gives the
// core the same guarantees as the settings row lock in Postgres.
type memStore struct {
	mu       *sync.Mutex
	state    *memState
	inTx     bool
	failures map[string]error
}

func newMemStore(settings *models.InventorySetting) *memStore {
	st := newMemState()
	if settings != nil {
		s := *settings
		if s.ID == 0 {
			s.ID = 1
		}
		st.settings = &s
	}
	return &memStore{mu: &sync.Mutex{}, state: st, failures: map[string]error{}}
}

func (m *memStore) with(op string, fn func(st *memState) error) error {
	if !m.inTx {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	if err := m.failures[op]; err != nil {
		return err
	}
	return fn(m.state)
}

func (m *memStore) failOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *memStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memStore{mu: m.mu, state: m.state.clone(), inTx: true, failures: m.failures}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) InventorySettings(ctx context.Context) (*models.InventorySetting, error) {
	var out *models.InventorySetting
	err := m.with("InventorySettings", func(st *memState) error {
		if st.settings == nil {
			return ErrInventoryNotConfigured
		}
		s := *st.settings
		out = &s
		return nil
	})
	return out, err
}

func (m *memStore) LockInventorySettings(ctx context.Context) (*models.InventorySetting, error) {
	return m.InventorySettings(ctx)
}

func (m *memStore) SaveInventorySettings(ctx context.Context, settings *models.InventorySetting) error {
	return m.with("SaveInventorySettings", func(st *memState) error {
		if settings.ID == 0 {
			settings.ID = st.id()
		}
		s := *settings
		st.settings = &s
		return nil
	})
}

func (m *memStore) LockedCounts(ctx context.Context) (LockedCounts, error) {
	var counts LockedCounts
	err := m.with("LockedCounts", func(st *memState) error {
		for _, b := range st.bookings {
			if slices.Contains(types.LockedBookingStatuses, b.Status) {
				counts.Add(Pool(b.Category), b.Quantity)
			}
		}
		return nil
	})
	return counts, err
}

func (m *memStore) FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var out *models.Voucher
	err := m.with("FindVoucherByCode", func(st *memState) error {
		for _, v := range st.vouchers {
			if NormalizeVoucherCode(v.Code) == NormalizeVoucherCode(code) {
				vv := *v
				out = &vv
				return nil
			}
		}
		return ErrVoucherNotFound
	})
	return out, err
}

func (m *memStore) RedeemVoucher(ctx context.Context, id uint) (bool, error) {
	redeemed := false
	err := m.with("RedeemVoucher", func(st *memState) error {
		v, ok := st.vouchers[id]
		if ok && v.Active && v.CurrentRedemptions < v.MaxRedemptions {
			v.CurrentRedemptions++
			redeemed = true
		}
		return nil
	})
	return redeemed, err
}

func (m *memStore) UpsertBuyer(ctx context.Context, buyer *models.Buyer) error {
	return m.with("UpsertBuyer", func(st *memState) error {
		if existing, ok := st.buyers[buyer.Email]; ok {
			existing.Name = buyer.Name
			existing.Phone = buyer.Phone
			existing.MembershipNumber = buyer.MembershipNumber
			buyer.ID = existing.ID
			return nil
		}
		buyer.ID = st.id()
		b := *buyer
		st.buyers[buyer.Email] = &b
		return nil
	})
}

// load copies b and attaches the named associations, mirroring what the
// Postgres store preloads for the same call.
func (st *memState) load(b *models.Booking, assocs ...string) *models.Booking {
	out := *b
	for _, assoc := range assocs {
		switch assoc {
		case "Table":
			if t, ok := st.tables[b.ID]; ok {
				tt := *t
				out.Table = &tt
			}
		case "Buyer":
			for _, buyer := range st.buyers {
				if buyer.ID == b.BuyerID {
					bb := *buyer
					out.Buyer = &bb
				}
			}
		case "InviteCodes":
			for _, c := range st.codes[b.ID] {
				cc := *c
				out.InviteCodes = append(out.InviteCodes, &cc)
			}
		}
	}
	return &out
}

func (st *memState) sorted(keep func(b *models.Booking) bool, assocs ...string) []models.Booking {
	var out []models.Booking
	for _, b := range st.bookings {
		if keep(b) {
			out = append(out, *st.load(b, assocs...))
		}
	}
	slices.SortFunc(out, func(a, b models.Booking) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (m *memStore) RecentBookings(ctx context.Context, q DuplicateQuery) ([]models.Booking, error) {
	var out []models.Booking
	err := m.with("RecentBookings", func(st *memState) error {
		out = st.sorted(func(b *models.Booking) bool {
			return b.BuyerID == q.BuyerID &&
				b.Type == q.Type &&
				b.Quantity == q.Quantity &&
				slices.Contains(types.LockedBookingStatuses, b.Status) &&
				!b.CreatedAt.Before(q.Since)
		}, "Table")
		return nil
	})
	return out, err
}

func (m *memStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return m.with("CreateBooking", func(st *memState) error {
		if booking.ID == uuid.Nil {
			booking.ID = uuid.New()
		}
		b := *booking
		b.Buyer, b.Table, b.InviteCodes, b.Voucher = nil, nil, nil, nil
		st.bookings[b.ID] = &b
		return nil
	})
}

func (m *memStore) CreateTable(ctx context.Context, table *models.Table) error {
	return m.with("CreateTable", func(st *memState) error {
		if _, ok := st.tables[table.BookingID]; ok {
			return fmt.Errorf("duplicate table for booking %s", table.BookingID)
		}
		table.ID = st.id()
		t := *table
		st.tables[table.BookingID] = &t
		return nil
	})
}

func (m *memStore) CreateInviteCodes(ctx context.Context, codes []*models.InviteCode) error {
	return m.with("CreateInviteCodes", func(st *memState) error {
		for _, c := range codes {
			c.ID = st.id()
			cc := *c
			st.codes[c.BookingID] = append(st.codes[c.BookingID], &cc)
		}
		return nil
	})
}

func (m *memStore) AttachPayment(ctx context.Context, id uuid.UUID, reference, url string) error {
	return m.with("AttachPayment", func(st *memState) error {
		b, ok := st.bookings[id]
		if !ok {
			return ErrBookingNotFound
		}
		b.PaymentReference = &reference
		b.PaymentURL = &url
		return nil
	})
}

func (m *memStore) GetBooking(ctx context.Context, id uuid.UUID, lock bool) (*models.Booking, error) {
	var out *models.Booking
	err := m.with("GetBooking", func(st *memState) error {
		b, ok := st.bookings[id]
		if !ok {
			return ErrBookingNotFound
		}
		if lock {
			bb := *b
			out = &bb
			return nil
		}
		out = st.load(b, "Buyer", "Table", "InviteCodes")
		return nil
	})
	return out, err
}

func (m *memStore) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status string, reference *string, paidAt *time.Time) error {
	return m.with("UpdateBookingStatus", func(st *memState) error {
		b, ok := st.bookings[id]
		if !ok {
			return ErrBookingNotFound
		}
		b.Status = status
		if reference != nil {
			ref := *reference
			b.PaymentReference = &ref
		}
		if paidAt != nil {
			t := *paidAt
			b.PaidAt = &t
			b.BalanceDue = 0
		}
		return nil
	})
}

func (m *memStore) DeleteTable(ctx context.Context, bookingID uuid.UUID) error {
	return m.with("DeleteTable", func(st *memState) error {
		delete(st.tables, bookingID)
		return nil
	})
}

func (m *memStore) DeleteInviteCodes(ctx context.Context, bookingID uuid.UUID) error {
	return m.with("DeleteInviteCodes", func(st *memState) error {
		delete(st.codes, bookingID)
		return nil
	})
}

func (m *memStore) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	return m.with("DeleteBooking", func(st *memState) error {
		if _, ok := st.tables[id]; ok {
			return fmt.Errorf("booking %s still owns a table", id)
		}
		if len(st.codes[id]) > 0 {
			return fmt.Errorf("booking %s still owns invite codes", id)
		}
		delete(st.bookings, id)
		return nil
	})
}

func (m *memStore) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	var out []models.Booking
	err := m.with("ListBookings", func(st *memState) error {
		out = st.sorted(func(b *models.Booking) bool {
			return f.Status == "" || b.Status == f.Status
		}, "Buyer")
		if f.Offset >= len(out) {
			out = nil
			return nil
		}
		out = out[f.Offset:]
		if f.Limit > 0 && len(out) > f.Limit {
			out = out[:f.Limit]
		}
		return nil
	})
	return out, err
}

func (m *memStore) BookingsMissingDependents(ctx context.Context, limit int) ([]models.Booking, error) {
	var out []models.Booking
	err := m.with("BookingsMissingDependents", func(st *memState) error {
		out = st.sorted(func(b *models.Booking) bool {
			if !slices.Contains(types.LockedBookingStatuses, b.Status) {
				return false
			}
			_, hasTable := st.tables[b.ID]
			return (b.IsTable() && !hasTable) || len(st.codes[b.ID]) == 0
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (m *memStore) StalePendingBookings(ctx context.Context, before time.Time, limit int) ([]models.Booking, error) {
	var out []models.Booking
	err := m.with("StalePendingBookings", func(st *memState) error {
		out = st.sorted(func(b *models.Booking) bool {
			return b.Status == string(types.BOOKING_PENDING) && b.CreatedAt.Before(before)
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

// test helpers

func (m *memStore) addVoucher(v models.Voucher) *models.Voucher {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.state.id()
	m.state.vouchers[v.ID] = &v
	return &v
}

func (m *memStore) voucher(id uint) models.Voucher {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state.vouchers[id]
}

func (m *memStore) allBookings() []models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.sorted(func(*models.Booking) bool { return true })
}

func (m *memStore) inviteCodes(id uuid.UUID) []*models.InviteCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.codes[id]
}

func (m *memStore) table(id uuid.UUID) *models.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.tables[id]
}

// insertBooking stores a booking directly, bypassing the service.
func (m *memStore) insertBooking(b models.Booking) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	m.state.bookings[b.ID] = &b
	return b
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []PaymentRequest
	err      error
	status   string
	resume   string
	lookups  []string
	delay    time.Duration
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	n := len(g.requests)
	err := g.err
	delay := g.delay
	g.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &PaymentSession{
		RedirectURL: fmt.Sprintf("https://checkout.example.com/c/pay/cs_test_%d", n),
		Reference:   fmt.Sprintf("cs_test_%d", n),
	}, nil
}

func (g *fakeGateway) PaymentStatus(ctx context.Context, reference string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, g.err
}

func (g *fakeGateway) ResumeURL(ctx context.Context, reference string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups = append(g.lookups, reference)
	return g.resume, g.err
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []uuid.UUID
	err  error
}

func (n *fakeNotifier) BookingConfirmed(ctx context.Context, b *models.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, b.ID)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeMembers map[string]bool

func (f fakeMembers) Verify(ctx context.Context, number string) (bool, error) {
	return f[number], nil
}

type fakeCache struct {
	mu            sync.Mutex
	value         *Availability
	sets          int
	invalidations int
}

func (c *fakeCache) Get(ctx context.Context) (*Availability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, nil
}

func (c *fakeCache) Set(ctx context.Context, a Availability) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = &a
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.invalidations++
	return nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	svc      *Service
	store    *memStore
	gateway  *fakeGateway
	notifier *fakeNotifier
	cache    *fakeCache
	clock    *testClock
}

func newHarness(settings models.InventorySetting, opts Options) *harness {
	h := &harness{
		store:    newMemStore(&settings),
		gateway:  &fakeGateway{status: "open"},
		notifier: &fakeNotifier{},
		cache:    &fakeCache{},
		clock:    &testClock{t: time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)},
	}
	if opts.AppHost == "" {
		opts.AppHost = "https://gala.example.com"
	}
	if opts.APIHost == "" {
		opts.APIHost = "https://api.gala.example.com"
	}
	h.svc = NewService(Dependencies{
		Store:    h.store,
		Gateway:  h.gateway,
		Notifier: h.notifier,
		Members:  fakeMembers{"M-1001": true},
		Cache:    h.cache,
	}, opts)
	h.svc.SetClock(h.clock.Now)
	h.svc.SetBackground(func(fn func()) { fn() })
	return h
}

func price(v float64) *float64 {
	return &v
}

func seatRequest(email string, qty int) types.CreateBookingRequestBody {
	return types.CreateBookingRequestBody{
		Type:     string(types.BOOKING_SEAT),
		Quantity: qty,
		Name:     "Ada Lovelace",
		Email:    email,
	}
}

func tableRequest(email string, capacity, qty int) types.CreateBookingRequestBody {
	return types.CreateBookingRequestBody{
		Type:          string(types.BOOKING_TABLE),
		TableCapacity: capacity,
		Quantity:      qty,
		Name:          "Grace Hopper",
		Email:         email,
	}
}

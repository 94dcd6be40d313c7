package lib

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const membershipQuery = "SELECT status, expires_at FROM members WHERE membership_number = ? LIMIT 1"

// MembershipDirectory looks membership numbers up in the club's MySQL
// database.
type MembershipDirectory struct {
	db  *sql.DB
	now func() time.Time
}

func OpenMembershipDirectory(dsn string) (*MembershipDirectory, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewMembershipDirectory(db), nil
}

func NewMembershipDirectory(db *sql.DB) *MembershipDirectory {
	return &MembershipDirectory{db: db, now: time.Now}
}

// Verify reports whether number belongs to an active, unexpired member.
func (m *MembershipDirectory) Verify(ctx context.Context, number string) (bool, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var status string
	var expiresAt sql.NullTime
	err := m.db.QueryRowContext(ctx, membershipQuery, number).Scan(&status, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(status, "active") {
		return false, nil
	}
	if expiresAt.Valid && expiresAt.Time.Before(m.now()) {
		return false, nil
	}
	return true, nil
}

func (m *MembershipDirectory) Close() error {
	return m.db.Close()
}

package lib

import (
	"os"

	"github.com/yeqown/go-qrcode"
)

// QRCodeJPEG encodes text as a QR code image.
func QRCodeJPEG(text string) ([]byte, error) {
	qrc, err := qrcode.New(text)
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "qrcode-*.jpeg")
	if err != nil {
		return nil, err
	}
	filepath := f.Name()
	f.Close()
	defer os.Remove(filepath)

	if err := qrc.Save(filepath); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath)
}

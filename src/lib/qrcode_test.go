package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRCodeJPEG(t *testing.T) {
	img, err := QRCodeJPEG("https://gala.example.com/manage/abc123")
	require.NoError(t, err)
	assert.NotEmpty(t, img)

	_, err = QRCodeJPEG("")
	assert.Error(t, err)
}

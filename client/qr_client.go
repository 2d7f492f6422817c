package client

import (
	"image"
	"net/url"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// QRClient detects UPI payment QR codes printed on receipts. Many Indian
// receipts carry a static UPI QR near the footer; finding one is a strong
// signal the transaction was UPI-settled.
type QRClient struct{}

func NewQRClient() *QRClient {
	return &QRClient{}
}

// DecodeUPI scans the image for a QR code carrying a upi:// payment URI and
// returns the payee name (pn) and VPA (pa) parameters when present. found is
// false when there is no QR or it is not a UPI URI.
func (q *QRClient) DecodeUPI(img image.Image) (payee, vpa string, found bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", "", false
	}

	reader := qrcode.NewQRCodeReader()
	result, err := reader.Decode(bmp, nil)
	if err != nil {
		return "", "", false
	}

	raw := result.GetText()
	if !strings.HasPrefix(strings.ToLower(raw), "upi://") {
		return "", "", false
	}

	uri, err := url.Parse(raw)
	if err != nil {
		return "", "", true
	}
	query := uri.Query()
	return query.Get("pn"), query.Get("pa"), true
}

package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

// SampleCode is the text printed on a booking's sample tube label
func SampleCode(bookingID int64) string {
	return fmt.Sprintf("LAB-%08d", bookingID)
}

// SampleLabelPNG renders the booking's sample code as a Code128 barcode
func SampleLabelPNG(bookingID int64) ([]byte, error) {
	code, err := code128.Encode(SampleCode(bookingID))
	if err != nil {
		return nil, err
	}

	scaled, err := barcode.Scale(code, 400, 100)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// QRCodeDataURL encodes content as a QR code PNG embedded in a data URL
func QRCodeDataURL(content string) (string, error) {
	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 200, 200)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

package utils

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
)

func TestSampleLabelPNG(t *testing.T) {
	if got := SampleCode(42); got != "LAB-00000042" {
		t.Errorf("SampleCode(42) = %s", got)
	}
	data, err := SampleLabelPNG(42)
	if err != nil {
		t.Fatalf("SampleLabelPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("label is not a PNG image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 100 {
		t.Errorf("label size = %dx%d, want 400x100", b.Dx(), b.Dy())
	}
}

func TestQRCodeDataURL(t *testing.T) {
	url, err := QRCodeDataURL("https://portal.example/reports/7")
	if err != nil {
		t.Fatalf("QRCodeDataURL: %v", err)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected data URL prefix: %.30s", url)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("QR code is not a PNG image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Errorf("QR size = %dx%d, want 200x200", b.Dx(), b.Dy())
	}
}

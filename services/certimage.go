package services

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	certWidth  = 1600
	certHeight = 1131 // ~A4 landscape
	qrSize     = 260
)

// renderCertificateImage draws the participation certificate and returns it as
// PNG bytes. A template image at templates/certificate.png is used as the
// background when present, otherwise a dark gradient.
func renderCertificateImage(volunteerName, eventTitle, verifyURL string) ([]byte, error) {
	dc := gg.NewContext(certWidth, certHeight)

	if template, err := gg.LoadImage("templates/certificate.png"); err == nil {
		dc.DrawImage(template, 0, 0)
	} else {
		grad := gg.NewLinearGradient(0, 0, certWidth, certHeight)
		grad.AddColorStop(0, color.RGBA{R: 15, G: 23, B: 42, A: 255})
		grad.AddColorStop(1, color.RGBA{R: 31, G: 41, B: 55, A: 255})
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, certWidth, certHeight)
		dc.Fill()
	}

	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}

	dc.SetFontFace(truetype.NewFace(bold, &truetype.Options{Size: 72}))
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored("Certificate of Participation", certWidth/2, 240, 0.5, 0.5)

	dc.SetFontFace(truetype.NewFace(regular, &truetype.Options{Size: 28}))
	dc.SetRGB255(229, 231, 235)
	dc.DrawStringAnchored("This certificate is proudly presented to", certWidth/2, 340, 0.5, 0.5)

	dc.SetFontFace(truetype.NewFace(bold, &truetype.Options{Size: 64}))
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(volunteerName, certWidth/2, 430, 0.5, 0.5)

	dc.SetFontFace(truetype.NewFace(regular, &truetype.Options{Size: 28}))
	dc.SetRGB255(229, 231, 235)
	dc.DrawStringAnchored(fmt.Sprintf("for volunteering at %q", eventTitle), certWidth/2, 500, 0.5, 0.5)

	// Scannable verification code in the bottom-right corner
	qr, err := qrcode.New(verifyURL, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	const pad = 80
	dc.DrawImage(qr.Image(qrSize), certWidth-qrSize-pad, certHeight-qrSize-pad)

	dc.SetFontFace(truetype.NewFace(regular, &truetype.Options{Size: 18}))
	dc.DrawStringAnchored("Scan to verify", certWidth-pad, certHeight-qrSize-pad+24, 1, 0.5)

	dc.SetFontFace(truetype.NewFace(regular, &truetype.Options{Size: 20}))
	dc.SetRGB255(203, 213, 225)
	dc.DrawString("Issued by EventLink", pad, certHeight-100)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode certificate png: %w", err)
	}
	return buf.Bytes(), nil
}

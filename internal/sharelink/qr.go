package sharelink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

const (
	qrSize      = 512
	labelHeight = 40
	labelMax    = 56
)

// QRCode renders link as a PNG QR code with an optional caption underneath,
// e.g. the project name, so a printed code can be told apart from others.
func QRCode(link, caption string) ([]byte, error) {
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("generating qr code: %w", err)
	}
	code := qr.Image(qrSize)
	if caption == "" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, code); err != nil {
			return nil, fmt.Errorf("encoding qr code: %w", err)
		}
		return buf.Bytes(), nil
	}

	size := code.Bounds().Dx()
	img := image.NewRGBA(image.Rect(0, 0, size, code.Bounds().Dy()+labelHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	draw.Draw(img, code.Bounds(), code, image.Point{}, draw.Src)

	if r := []rune(caption); len(r) > labelMax {
		caption = string(r[:labelMax-3]) + "..."
	}
	face := inconsolata.Bold8x16
	width := font.MeasureString(face, caption).Round()
	x := (size - width) / 2
	if x < 8 {
		x = 8
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{30, 30, 30, 255}),
		Face: face,
		Dot:  fixed.P(x, code.Bounds().Dy()+labelHeight/2+6),
	}
	d.DrawString(caption)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return buf.Bytes(), nil
}

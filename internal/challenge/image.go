package challenge

import (
	"image/color"

	"github.com/mojocn/base64Captcha"
)

// ImageRenderer draws answers as noisy PNG images encoded as data URIs.
type ImageRenderer struct {
	driver *base64Captcha.DriverString
}

// NewImageRenderer builds a renderer for images of the given size.
func NewImageRenderer(width, height, noise int) *ImageRenderer {
	background := &color.RGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
	driver := base64Captcha.NewDriverString(
		height,
		width,
		noise,
		base64Captcha.OptionShowSlimeLine|base64Captcha.OptionShowHollowLine,
		DefaultLength,
		Alphabet,
		background,
		nil,
		nil,
	)
	return &ImageRenderer{driver: driver}
}

func (r *ImageRenderer) Render(answer string) (string, error) {
	item, err := r.driver.DrawCaptcha(answer)
	if err != nil {
		return "", err
	}
	return item.EncodeB64string(), nil
}

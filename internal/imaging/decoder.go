// Package imaging turns uploaded image bytes into pixel arrays.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"github.com/krishivue/agri-api/internal/model"
)

const channels = 3

type Decoder struct {
	// Size resizes the image to Size x Size when non-zero.
	Size uint
}

func NewDecoder(size uint) *Decoder {
	return &Decoder{Size: size}
}

// Decode returns the RGB pixels of data in height, width, channel order
// with values in [0,255].
func (d *Decoder) Decode(data []byte) (*model.PixelArray, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s image has no pixels", model.ErrDecode, format)
	}

	if d.Size > 0 && (bounds.Dx() != int(d.Size) || bounds.Dy() != int(d.Size)) {
		img = resize.Resize(d.Size, d.Size, img, resize.Lanczos3)
		bounds = img.Bounds()
	}

	return toPixels(img, bounds), nil
}

func toPixels(img image.Image, bounds image.Rectangle) *model.PixelArray {
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]float32, 0, width*height*channels)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data, float32(c.R), float32(c.G), float32(c.B))
		}
	}

	return &model.PixelArray{
		Height:   height,
		Width:    width,
		Channels: channels,
		Data:     data,
	}
}

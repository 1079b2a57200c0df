package render

import (
	"image"

	"github.com/skip2/go-qrcode"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// GenerateQRCode returns a 1-bit QR code for payload no larger than
// maxSide pixels per side, using the largest whole-pixel module size that
// fits. Light modules (including the quiet zone) are lit so phone cameras
// read it on an emissive panel. An empty payload returns (nil, nil).
func GenerateQRCode(payload string, maxSide int) (*image1bit.VerticalLSB, error) {
	if payload == "" {
		return nil, nil
	}
	qrCode, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return nil, err
	}
	bitmap := qrCode.Bitmap()
	modules := len(bitmap)
	scale := 1
	if modules > 0 && maxSide >= modules {
		scale = maxSide / modules
	}

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, modules*scale, modules*scale))
	for row, cells := range bitmap {
		for col, black := range cells {
			if black {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetBit(col*scale+dx, row*scale+dy, image1bit.On)
				}
			}
		}
	}
	return img, nil
}

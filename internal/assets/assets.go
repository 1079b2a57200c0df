package assets

import (
	"bytes"
	"embed"
	"image"
	"image/png"
	"io/fs"
)

//go:embed bluetooth.png
var BluetoothPNG []byte

//go:embed web
var webFS embed.FS

// WebUI is an embedded filesystem rooted at internal/assets/web.
// It holds the page that mirrors the panel in a browser.
var WebUI fs.FS

func init() {
	// Embed paths include the leading directory; strip it for serving at '/'.
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	WebUI = sub
}

// BluetoothGlyph decodes the icon drawn while a device is connected.
func BluetoothGlyph() (image.Image, error) {
	return png.Decode(bytes.NewReader(BluetoothPNG))
}

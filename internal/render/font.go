package render

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// ParseFace builds a face from OpenType or TrueType data. OpenType parsing
// is tried first, freetype's TrueType parser second.
func ParseFace(data []byte, sizePt float64) (font.Face, error) {
	if sizePt <= 0 {
		sizePt = 10
	}
	otf, err := opentype.Parse(data)
	if err == nil {
		face, ferr := opentype.NewFace(otf, &opentype.FaceOptions{Size: sizePt, DPI: 72, Hinting: font.HintingFull})
		if ferr == nil {
			return face, nil
		}
		err = ferr
	}
	ttf, terr := truetype.Parse(data)
	if terr != nil {
		return nil, fmt.Errorf("parse font: opentype: %v; truetype: %w", err, terr)
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: sizePt, DPI: 72, Hinting: font.HintingFull}), nil
}

// LoadFace loads the font at path. An empty path, or any failure, yields
// the fixed-width basicfont face.
func LoadFace(path string, sizePt float64, logger Logger) font.Face {
	if logger == nil {
		logger = noopLogger{}
	}
	if path == "" {
		return basicfont.Face7x13
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Errorf("font", "read %s failed, using basicfont: %v", path, err)
		return basicfont.Face7x13
	}
	face, err := ParseFace(data, sizePt)
	if err != nil {
		logger.Errorf("font", "%s unusable, using basicfont: %v", path, err)
		return basicfont.Face7x13
	}
	logger.Infof("font", "loaded %s at %.1fpt", path, sizePt)
	return face
}

package layout

import (
	"image"
	"testing"
)

func TestSplitHorizontalClamps(t *testing.T) {
	rect := image.Rect(0, 0, 128, 64)
	top, bottom := SplitHorizontal(rect, 16)
	if top != image.Rect(0, 0, 128, 16) {
		t.Errorf("top = %v, want (0,0)-(128,16)", top)
	}
	if bottom != image.Rect(0, 16, 128, 64) {
		t.Errorf("bottom = %v, want (0,16)-(128,64)", bottom)
	}

	top, bottom = SplitHorizontal(rect, 500)
	if top != rect || !bottom.Empty() {
		t.Errorf("oversized split = %v / %v, want whole / empty", top, bottom)
	}
}

func TestSplitRight(t *testing.T) {
	left, right := SplitRight(image.Rect(10, 0, 110, 20), 30)
	if left != image.Rect(10, 0, 80, 20) {
		t.Errorf("left = %v, want (10,0)-(80,20)", left)
	}
	if right != image.Rect(80, 0, 110, 20) {
		t.Errorf("right = %v, want (80,0)-(110,20)", right)
	}
}

func TestCenterShrinksToFit(t *testing.T) {
	got := Center(image.Rect(0, 0, 10, 10), 4, 20)
	if got != image.Rect(3, 0, 7, 10) {
		t.Errorf("Center = %v, want (3,0)-(7,10)", got)
	}
}

func TestFitSquare(t *testing.T) {
	got := FitSquare(image.Rect(5, 5, 105, 45))
	if got != image.Rect(5, 5, 45, 45) {
		t.Errorf("FitSquare = %v, want (5,5)-(45,45)", got)
	}
}

func TestNormalizeSwapsInvertedAxes(t *testing.T) {
	got := Normalize(image.Rectangle{Min: image.Pt(10, 10), Max: image.Pt(0, 0)})
	if got != image.Rect(0, 0, 10, 10) {
		t.Errorf("Normalize = %v, want (0,0)-(10,10)", got)
	}
}

package region

import (
	"image"

	"github.com/retroplayer/frontpanel/internal/render/layout"
)

// Names of the regions in the default panel layout.
const (
	Display     = "display"
	TopBar      = "top-bar"
	Bluetooth   = "bluetooth"
	Title       = "title"
	Main        = "main"
	ArtistAlbum = "artist-album"
	TimeRow     = "time-row"
	Elapsed     = "elapsed"
	Progress    = "progress"
	Remaining   = "remaining"
)

// DefaultLayout derives the panel layout from the surface bounds and font
// metrics: a top bar with the bluetooth icon and the title, and a main
// area with the artist line above elapsed time, progress bar and
// remaining time.
//
// Rows lose their padding when three padded rows do not fit. The time
// texts get room for h:mm:ss when the bar still keeps a third of the row,
// otherwise room for m:ss. A panel too short for three lines of text gets
// an empty time row, which NewTree rejects.
func DefaultLayout(bounds image.Rectangle, lineHeight, glyphWidth, iconWidth int) []Spec {
	rowHeight := lineHeight + 3
	if 3*rowHeight > bounds.Dy() {
		rowHeight = lineHeight
	}
	top, main := layout.SplitHorizontal(bounds, rowHeight)
	icon, title := layout.SplitVertical(top, iconWidth+2)
	artist, times := layout.SplitHorizontal(main, rowHeight)
	if times.Dy() < lineHeight {
		times.Min.Y = times.Max.Y
	}
	elapsedCols, remainingCols := 7, 8
	if (elapsedCols+remainingCols)*glyphWidth > times.Dx()*2/3 {
		elapsedCols, remainingCols = 5, 6
	}
	elapsed, rest := layout.SplitVertical(times, elapsedCols*glyphWidth)
	bar, remaining := layout.SplitRight(rest, remainingCols*glyphWidth)

	return []Spec{
		{Name: Display, Rect: bounds},
		{Name: TopBar, Parent: Display, Rect: top},
		{Name: Bluetooth, Parent: TopBar, Rect: icon, Exclusive: true},
		{Name: Title, Parent: TopBar, Rect: title},
		{Name: Main, Parent: Display, Rect: main},
		{Name: ArtistAlbum, Parent: Main, Rect: artist},
		{Name: TimeRow, Parent: Main, Rect: times},
		{Name: Elapsed, Parent: TimeRow, Rect: elapsed},
		{Name: Progress, Parent: TimeRow, Rect: bar},
		{Name: Remaining, Parent: TimeRow, Rect: remaining},
	}
}

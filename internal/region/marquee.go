package region

// marquee is the scrolling window over text + separator + text. Stepping
// by one character per tick and wrapping at len(text)+len(separator)
// makes the tail run straight into the head again.
type marquee struct {
	doubled []rune
	cycle   int
	cols    int
}

func newMarquee(text string, cols int) marquee {
	return marquee{
		doubled: []rune(text + marqueeSeparator + text),
		cycle:   len([]rune(text)) + len([]rune(marqueeSeparator)),
		cols:    cols,
	}
}

func (m marquee) window(step int) string {
	if m.cycle == 0 {
		return ""
	}
	start := step % m.cycle
	end := start + m.cols
	if end > len(m.doubled) {
		end = len(m.doubled)
	}
	return string(m.doubled[start:end])
}

// MarqueeWindow returns the cols characters shown at the given scroll step.
func MarqueeWindow(text string, cols, step int) string {
	if step < 0 {
		step = 0
	}
	return newMarquee(text, cols).window(step)
}

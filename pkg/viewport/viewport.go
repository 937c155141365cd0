// Package viewport maps a scroll position over the filtered view to a
// bounded window of display rows.
package viewport

// Index is the filtered view a viewport scrolls over.
type Index interface {
	Len() int
	At(pos int) (int, bool)
	Position(seq int) (int, bool)
}

// Viewport tracks the vertical offset, the cursor, follow mode and
// horizontal scroll. Offset and cursor are positions in the filtered view,
// not sequence indices. The cursor always lies inside the window; it stays
// on the top row unless a jump or a scroll past the end moves it down.
type Viewport struct {
	offset int
	cursor int
	height int
	follow bool

	hscroll int
	wrap    bool
}

// New returns a viewport of the given height with follow mode on.
func New(height int) *Viewport {
	v := &Viewport{follow: true}
	v.height = max(height, 1)
	return v
}

// Offset is the view position of the top row.
func (v *Viewport) Offset() int { return v.offset }

// Cursor is the view position of the current line.
func (v *Viewport) Cursor() int { return v.cursor }

// Height is the number of rows in the window.
func (v *Viewport) Height() int { return v.height }

// Following reports whether new lines scroll the window.
func (v *Viewport) Following() bool { return v.follow }

// HScroll is the stored horizontal offset in runes.
func (v *Viewport) HScroll() int { return v.hscroll }

// Wrap reports whether long lines are wrapped.
func (v *Viewport) Wrap() bool { return v.wrap }

// MaxOffset is the largest offset that still fills the window.
func (v *Viewport) MaxOffset(total int) int {
	return max(0, total-v.height)
}

// Clamp pulls the offset back into [0, MaxOffset(total)] and the cursor
// into the window.
func (v *Viewport) Clamp(total int) {
	v.offset = min(max(v.offset, 0), v.MaxOffset(total))
	v.cursor = min(max(v.cursor, v.offset), v.offset+v.height-1, max(total-1, 0))
}

// toBottom anchors the window on the last line with the cursor on its top row.
func (v *Viewport) toBottom(total int) {
	v.offset = v.MaxOffset(total)
	v.cursor = v.offset
}

// SetHeight resizes the window.
func (v *Viewport) SetHeight(height, total int) {
	v.height = max(height, 1)
	v.Refit(total)
}

// Refit re-anchors the window after the filtered view changed wholesale.
func (v *Viewport) Refit(total int) {
	if v.follow {
		v.toBottom(total)
		return
	}
	v.Clamp(total)
}

// SetFollow turns follow mode on or off. Turning it on jumps to the bottom.
func (v *Viewport) SetFollow(on bool, total int) {
	v.follow = on
	if on {
		v.toBottom(total)
	}
}

// ScrollBy moves the window by delta rows and leaves follow mode. The
// cursor keeps its row; the part of delta the window cannot absorb at
// either end moves the cursor instead.
func (v *Viewport) ScrollBy(delta, total int) {
	v.follow = false
	v.offset += delta
	v.cursor += delta
	v.Clamp(total)
}

// ScrollTo puts pos at the top of the window where possible, moves the
// cursor onto pos and leaves follow mode.
func (v *Viewport) ScrollTo(pos, total int) {
	v.follow = false
	v.offset = pos
	v.cursor = pos
	v.Clamp(total)
}

// PageUp and PageDown scroll by one window height.
func (v *Viewport) PageUp(total int)   { v.ScrollBy(-v.height, total) }
func (v *Viewport) PageDown(total int) { v.ScrollBy(v.height, total) }

// Top jumps to the first line and leaves follow mode.
func (v *Viewport) Top(total int) { v.ScrollTo(0, total) }

// Bottom jumps to the last line and re-enables follow mode.
func (v *Viewport) Bottom(total int) { v.SetFollow(true, total) }

// OnAppend is called after a line is appended. visible reports whether
// the line entered the filtered view; total is the new view length.
func (v *Viewport) OnAppend(visible bool, total int) {
	if visible && v.follow {
		v.toBottom(total)
	}
}

// Window returns the half-open range of view positions to display.
func (v *Viewport) Window(total int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	v.Clamp(total)
	return v.offset, min(v.offset+v.height, total)
}

// Rows resolves the window to sequence indices.
func (v *Viewport) Rows(idx Index) []int {
	start, end := v.Window(idx.Len())
	seqs := make([]int, 0, end-start)
	for pos := start; pos < end; pos++ {
		if seq, ok := idx.At(pos); ok {
			seqs = append(seqs, seq)
		}
	}
	return seqs
}

// CursorSeq returns the sequence index of the current line.
func (v *Viewport) CursorSeq(idx Index) (int, bool) {
	if idx.Len() == 0 {
		return 0, false
	}
	v.Clamp(idx.Len())
	return idx.At(v.cursor)
}

// ScrollRight and ScrollLeft shift the horizontal offset in runes. They
// have no effect while wrapping.
func (v *Viewport) ScrollRight(n int) {
	if !v.wrap {
		v.hscroll += n
	}
}

func (v *Viewport) ScrollLeft(n int) {
	if !v.wrap {
		v.hscroll = max(0, v.hscroll-n)
	}
}

// ResetHScroll returns to the start of the line.
func (v *Viewport) ResetHScroll() { v.hscroll = 0 }

// SetWrap toggles line wrapping. Wrapping resets horizontal scroll.
func (v *Viewport) SetWrap(on bool) {
	v.wrap = on
	if on {
		v.hscroll = 0
	}
}

// EffectiveHScroll is the rune offset to apply to displayed text.
func (v *Viewport) EffectiveHScroll() int {
	if v.wrap {
		return 0
	}
	return v.hscroll
}

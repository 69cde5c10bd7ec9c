// Package screen defines the rendering and raw-input contracts the
// navigation core consumes, plus a terminal cell-grid implementation used
// by the demo host. The core never draws directly; it hands primitives to
// whatever Screen is attached.
package screen

// Colour is an 8-bit RGBA colour.
type Colour struct {
	R, G, B, A uint8
}

// Opaque reports whether the colour should be drawn at all.
func (c Colour) Opaque() bool { return c.A > 0 }

// RGB builds a fully opaque colour.
func RGB(r, g, b uint8) Colour { return Colour{R: r, G: g, B: b, A: 255} }

// Point is a screen coordinate; origin top-left.
type Point struct {
	X, Y int
}

// Label is an opaque handle to prepared text. Backends may cache layout
// or measurement behind it.
type Label interface {
	Text() string
}

// Screen is the rendering surface contract.
type Screen interface {
	// Dimensions reports the drawable width and height in screen units.
	Dimensions() (w, h int)

	DrawRectangle(x1, y1, x2, y2 int, fill, outline Colour, lineWidth int)
	DrawPolygon(pts []Point, fill, outline Colour, lineWidth int)
	DrawCircle(cx, cy, r int, fill, outline Colour, lineWidth int)
	DrawLine(x1, y1, x2, y2 int, lineWidth int, c Colour)

	MakeLabel(text string, wrap int) Label
	DestroyLabel(l Label)
	DrawText(l Label, x, y int, c Colour)
	MeasureText(l Label) (w, h int)

	// Display flushes the frame.
	Display()
}

// Input is the raw input-device contract.
type Input interface {
	// PollCoordinates reports the pointer position in screen
	// coordinates; ok is false when no pointer is available this frame.
	PollCoordinates() (x, y int, ok bool)

	// IsButtonPressed reports the held state of a button.
	IsButtonPressed(id int) bool
}

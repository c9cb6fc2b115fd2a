// Package graphic defines the wire model of the overlay protocol: one JSON
// object per line, each describing a named graphic with a time-to-live and
// one of three drawable shapes (or none, for deletions and ttl-only updates).
package graphic

import (
	"encoding/json"
	"fmt"
)

// Logical coordinate space all client coordinates live in. The surface scales
// them to the actual window geometry.
const (
	LogicalWidth  = 1280
	LogicalHeight = 1024
)

// Drawable is the shape payload of a Graphic: Rect, Vector or Text.
type Drawable interface{ isDrawable() }

// Rect is a filled rectangle with a border.
type Rect struct {
	X    int
	Y    int
	W    int
	H    int
	Fill Color
	// Color is the border color.
	Color Color
}

func (Rect) isDrawable() {}

// Vector is a connected polyline through its points, in order.
type Vector struct {
	Color  Color
	Points []Point
}

func (Vector) isDrawable() {}

// Point is one element of a Vector.
type Point struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Marker Marker `json:"marker"`
	Color  Color  `json:"color"`
	Text   string `json:"text"`
}

// Text is a string anchored at (X, Y).
type Text struct {
	Text  string
	Size  Size
	Color Color
	X     int
	Y     int
}

func (Text) isDrawable() {}

// Graphic is one protocol message. A nil Drawable with TTL zero is a
// deletion marker; a nil Drawable with nonzero TTL carries no actionable
// intent and is dropped by ingestion.
type Graphic struct {
	ID       string
	TTL      int
	Drawable Drawable
}

// Parse decodes a single protocol line. Numeric ids are coerced to their
// decimal string form. The drawable fields must match exactly one of the
// three shapes; an unrecognized "shape" value or an invalid color, size or
// marker anywhere in the message fails the whole line, while a merely
// incomplete shape leaves the Drawable absent.
func Parse(line []byte) (Graphic, error) {
	var raw rawGraphic
	if err := json.Unmarshal(line, &raw); err != nil {
		return Graphic{}, err
	}
	if raw.ID == nil {
		return Graphic{}, fmt.Errorf("missing id")
	}
	id, err := parseID(raw.ID)
	if err != nil {
		return Graphic{}, err
	}
	if raw.TTL == nil {
		return Graphic{}, fmt.Errorf("missing ttl")
	}
	d, err := raw.drawable()
	if err != nil {
		return Graphic{}, err
	}
	return Graphic{ID: id, TTL: *raw.TTL, Drawable: d}, nil
}

type rawGraphic struct {
	ID     json.RawMessage `json:"id"`
	TTL    *int            `json:"ttl"`
	Shape  *string         `json:"shape"`
	X      *int            `json:"x"`
	Y      *int            `json:"y"`
	W      *int            `json:"w"`
	H      *int            `json:"h"`
	Fill   *Color          `json:"fill"`
	Color  *Color          `json:"color"`
	Text   *string         `json:"text"`
	Size   Size            `json:"size"`
	Vector []Point         `json:"vector"`
}

func parseID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id must be a string or a number")
}

func (raw *rawGraphic) drawable() (Drawable, error) {
	switch {
	case raw.Shape != nil:
		switch *raw.Shape {
		case "rect":
			if raw.X == nil || raw.Y == nil || raw.W == nil || raw.H == nil ||
				raw.Fill == nil || raw.Color == nil {
				return nil, nil
			}
			if err := nonNegative(*raw.X, *raw.Y, *raw.W, *raw.H); err != nil {
				return nil, err
			}
			return Rect{
				X: *raw.X, Y: *raw.Y, W: *raw.W, H: *raw.H,
				Fill: *raw.Fill, Color: *raw.Color,
			}, nil
		case "vect":
			if raw.Color == nil || raw.Vector == nil {
				return nil, nil
			}
			for _, p := range raw.Vector {
				if err := nonNegative(p.X, p.Y); err != nil {
					return nil, err
				}
			}
			return Vector{Color: *raw.Color, Points: raw.Vector}, nil
		default:
			return nil, fmt.Errorf("unknown shape %q", *raw.Shape)
		}
	case raw.Text != nil:
		if raw.Color == nil || raw.X == nil || raw.Y == nil {
			return nil, nil
		}
		if err := nonNegative(*raw.X, *raw.Y); err != nil {
			return nil, err
		}
		return Text{
			Text: *raw.Text, Size: raw.Size, Color: *raw.Color,
			X: *raw.X, Y: *raw.Y,
		}, nil
	default:
		return nil, nil
	}
}

func nonNegative(vs ...int) error {
	for _, v := range vs {
		if v < 0 {
			return fmt.Errorf("negative coordinate %d", v)
		}
	}
	return nil
}

// MarshalJSON writes the flattened wire form back out, mainly for logging.
func (g Graphic) MarshalJSON() ([]byte, error) {
	type base struct {
		ID  string `json:"id"`
		TTL int    `json:"ttl"`
	}
	b := base{ID: g.ID, TTL: g.TTL}
	switch d := g.Drawable.(type) {
	case Rect:
		return json.Marshal(struct {
			base
			Shape string `json:"shape"`
			X     int    `json:"x"`
			Y     int    `json:"y"`
			W     int    `json:"w"`
			H     int    `json:"h"`
			Fill  Color  `json:"fill"`
			Color Color  `json:"color"`
		}{b, "rect", d.X, d.Y, d.W, d.H, d.Fill, d.Color})
	case Vector:
		return json.Marshal(struct {
			base
			Shape  string  `json:"shape"`
			Color  Color   `json:"color"`
			Vector []Point `json:"vector"`
		}{b, "vect", d.Color, d.Points})
	case Text:
		return json.Marshal(struct {
			base
			Text  string `json:"text"`
			Size  Size   `json:"size"`
			Color Color  `json:"color"`
			X     int    `json:"x"`
			Y     int    `json:"y"`
		}{b, d.Text, d.Size, d.Color, d.X, d.Y})
	default:
		return json.Marshal(b)
	}
}

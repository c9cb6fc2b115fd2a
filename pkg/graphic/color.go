package graphic

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is one 8-bit channel each of red, green and blue. On the wire it is
// either one of a few named colors or a "#rrggbb" hex string; it always
// serializes back as lowercase hex, so named colors do not round-trip to
// their names.
type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

var namedColors = map[string]Color{
	"red":    {255, 0, 0},
	"green":  {0, 255, 0},
	"yellow": {255, 255, 0},
	"blue":   {0, 0, 255},
	"black":  {0, 0, 0},
}

// ParseColor accepts a named color or a case-insensitive "#rrggbb" string.
func ParseColor(s string) (Color, error) {
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(strings.ToLower(s[1:]), 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	return Color{
		Red:   uint8(v >> 16),
		Green: uint8(v >> 8),
		Blue:  uint8(v),
	}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Size selects between the two overlay fonts.
type Size int

const (
	SizeNormal Size = iota
	SizeLarge
)

func (s Size) MarshalText() ([]byte, error) {
	if s == SizeLarge {
		return []byte("large"), nil
	}
	return []byte("normal"), nil
}

func (s *Size) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*s = SizeNormal
	case "large":
		*s = SizeLarge
	default:
		return fmt.Errorf("invalid size %q", b)
	}
	return nil
}

// Marker is the per-point marker kind of a vector element. Nothing downstream
// renders it yet, but it is part of the wire shape.
type Marker int

const (
	MarkerCircle Marker = iota
	MarkerCross
)

func (m Marker) MarshalText() ([]byte, error) {
	if m == MarkerCross {
		return []byte("cross"), nil
	}
	return []byte("circle"), nil
}

func (m *Marker) UnmarshalText(b []byte) error {
	switch string(b) {
	case "circle":
		*m = MarkerCircle
	case "cross":
		*m = MarkerCross
	default:
		return fmt.Errorf("invalid marker %q", b)
	}
	return nil
}

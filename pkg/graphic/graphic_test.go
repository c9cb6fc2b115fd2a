package graphic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want string // canonical hex form
	}{
		{"red", "#ff0000"},
		{"green", "#00ff00"},
		{"yellow", "#ffff00"},
		{"blue", "#0000ff"},
		{"black", "#000000"},
		{"#FFAA00", "#ffaa00"},
		{"#ffaa00", "#ffaa00"},
		{"#012345", "#012345"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			c, err := ParseColor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.String())
			assert.Len(t, c.String(), 7)

			// canonical form parses back to the same RGB value
			again, err := ParseColor(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, again)
		})
	}
}

func TestParseColorInvalid(t *testing.T) {
	for _, in := range []string{
		"", "white", "ff0000", "#ff000", "#ff00000", "#gg0000", "#ff 000", "RED",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseColor(in)
			assert.Error(t, err)
		})
	}
}

func TestParseRect(t *testing.T) {
	g, err := Parse([]byte(`{"id":"r1","ttl":-1,"shape":"rect","x":10,"y":10,"w":50,"h":50,"fill":"red","color":"black"}`))
	require.NoError(t, err)
	assert.Equal(t, "r1", g.ID)
	assert.Equal(t, -1, g.TTL)
	require.IsType(t, Rect{}, g.Drawable)
	r := g.Drawable.(Rect)
	assert.Equal(t, Rect{X: 10, Y: 10, W: 50, H: 50, Fill: Color{255, 0, 0}, Color: Color{0, 0, 0}}, r)
}

func TestParseText(t *testing.T) {
	g, err := Parse([]byte(`{"id":"t1","ttl":2,"text":"hi","color":"#00ff00","x":5,"y":5}`))
	require.NoError(t, err)
	require.IsType(t, Text{}, g.Drawable)
	txt := g.Drawable.(Text)
	assert.Equal(t, "hi", txt.Text)
	assert.Equal(t, SizeNormal, txt.Size) // size defaults to normal when absent
	assert.Equal(t, Color{0, 255, 0}, txt.Color)

	g, err = Parse([]byte(`{"id":"t2","ttl":2,"text":"big","size":"large","color":"blue","x":1,"y":2}`))
	require.NoError(t, err)
	assert.Equal(t, SizeLarge, g.Drawable.(Text).Size)
}

func TestParseVector(t *testing.T) {
	g, err := Parse([]byte(`{"id":"v1","ttl":3,"shape":"vect","color":"yellow","vector":[` +
		`{"x":1,"y":2,"marker":"circle","color":"red","text":"a"},` +
		`{"x":3,"y":4,"marker":"cross","color":"#0000ff","text":"b"}]}`))
	require.NoError(t, err)
	require.IsType(t, Vector{}, g.Drawable)
	v := g.Drawable.(Vector)
	require.Len(t, v.Points, 2)
	assert.Equal(t, MarkerCross, v.Points[1].Marker)
	assert.Equal(t, "b", v.Points[1].Text)
}

func TestParseNumericID(t *testing.T) {
	g, err := Parse([]byte(`{"id":42,"ttl":0}`))
	require.NoError(t, err)
	assert.Equal(t, "42", g.ID)
	assert.Nil(t, g.Drawable)
}

func TestParseTTLOnlyUpdate(t *testing.T) {
	// no drawable fields at all: valid message, absent drawable
	g, err := Parse([]byte(`{"id":"x","ttl":5}`))
	require.NoError(t, err)
	assert.Nil(t, g.Drawable)
	assert.Equal(t, 5, g.TTL)
}

func TestParseIncompleteShapeIsAbsent(t *testing.T) {
	// a rect missing its fill does not match the shape; that is not an error
	g, err := Parse([]byte(`{"id":"r","ttl":1,"shape":"rect","x":1,"y":1,"w":2,"h":2,"color":"red"}`))
	require.NoError(t, err)
	assert.Nil(t, g.Drawable)
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"invalid json", `{"id":"x"`},
		{"missing id", `{"ttl":1}`},
		{"missing ttl", `{"id":"x"}`},
		{"bool id", `{"id":true,"ttl":1}`},
		{"unknown shape", `{"id":"x","ttl":1,"shape":"circle","x":1,"y":1}`},
		{"bad fill color", `{"id":"x","ttl":1,"shape":"rect","x":1,"y":1,"w":1,"h":1,"fill":"mauve","color":"red"}`},
		{"bad size", `{"id":"x","ttl":1,"text":"hi","size":"huge","color":"red","x":1,"y":1}`},
		{"bad marker", `{"id":"x","ttl":1,"shape":"vect","color":"red","vector":[{"x":1,"y":1,"marker":"dot","color":"red","text":""}]}`},
		{"negative coordinate", `{"id":"x","ttl":1,"text":"hi","color":"red","x":-4,"y":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.line))
			assert.Error(t, err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	line := `{"id":"t1","ttl":2,"text":"hi","color":"#00ff00","x":5,"y":5}`
	g, err := Parse([]byte(line))
	require.NoError(t, err)

	out, err := g.MarshalJSON()
	require.NoError(t, err)
	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, g, again)
}

// Package surface renders overlay snapshots into a software framebuffer.
// Clients draw in the fixed 1280x1024 logical space; the surface scales to
// the configured window geometry. Expired graphics are erased back to
// transparency before the snapshot is repainted, and each finished frame is
// published as PNG for the HTTP API.
package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"github.com/edmcoverlay/overlayce/internal/engine"
	"github.com/edmcoverlay/overlayce/internal/xguard"
	"github.com/edmcoverlay/overlayce/pkg/graphic"
)

// Geometry is the overlay window position and size in screen pixels.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (g Geometry) scaleW(v int) int { return v * g.Width / graphic.LogicalWidth }
func (g Geometry) scaleH(v int) int { return v * g.Height / graphic.LogicalHeight }
func (g Geometry) scaleX(v int) int { return g.scaleW(v) + 20 }
func (g Geometry) scaleY(v int) int { return g.scaleH(v) + 40 }

// The framebuffer backend is not built for concurrent callers. The guard's
// init hook is empty because this backend needs no one-time threading setup,
// but acquisition still follows the same exclusive-unless-initialized
// discipline as a native display would require.
var backendGuard = xguard.New(func() {})

// AcquireBackend claims exclusive use of the framebuffer backend. It reports
// false if another handle is outstanding.
func AcquireBackend() (*xguard.ExclusiveHandle, bool) {
	return backendGuard.AcquireExclusive()
}

var transparent = color.RGBA{}

// Raster implements engine.Surface on an in-memory RGBA framebuffer.
type Raster struct {
	handle *xguard.ExclusiveHandle
	geom   Geometry
	frame  *image.RGBA
	body   font.Face
	title  font.Face
	log    *zap.Logger

	encoded atomic.Pointer[[]byte]
}

// NewRaster opens the framebuffer. The exclusive handle is the capability to
// drive the backend; the surface keeps it for its lifetime and must stay
// owned by a single goroutine.
func NewRaster(handle *xguard.ExclusiveHandle, geom Geometry, log *zap.Logger) (*Raster, error) {
	if handle == nil {
		return nil, fmt.Errorf("surface: nil backend handle")
	}
	if geom.Width <= 0 || geom.Height <= 0 {
		return nil, fmt.Errorf("surface: invalid geometry %dx%d", geom.Width, geom.Height)
	}
	return &Raster{
		handle: handle,
		geom:   geom,
		frame:  image.NewRGBA(image.Rect(0, 0, geom.Width, geom.Height)),
		body:   basicfont.Face7x13,
		title:  inconsolata.Bold8x16,
		log:    log,
	}, nil
}

// Redraw erases this event's expired graphics, repaints the snapshot and
// publishes the frame. Engine goroutine only.
func (r *Raster) Redraw(snapshot engine.Snapshot, expired []graphic.Graphic) error {
	r.log.Debug("redrawing", zap.Int("graphics", len(snapshot)), zap.Int("expired", len(expired)))

	for _, g := range expired {
		r.erase(g)
	}
	for _, g := range snapshot {
		r.draw(*g)
	}
	return r.publish()
}

// Frame returns the most recently published frame as PNG, or nil before the
// first redraw. Safe from any goroutine.
func (r *Raster) Frame() []byte {
	p := r.encoded.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (r *Raster) publish() error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.frame); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	b := buf.Bytes()
	r.encoded.Store(&b)
	return nil
}

func (r *Raster) erase(g graphic.Graphic) {
	switch d := g.Drawable.(type) {
	case graphic.Rect:
		r.fill(r.geom.scaleX(d.X), r.geom.scaleY(d.Y), r.geom.scaleW(d.W), r.geom.scaleH(d.H), transparent)
	case graphic.Vector:
		if len(d.Points) == 0 {
			return
		}
		xmin, xmax := d.Points[0].X, d.Points[0].X
		ymin, ymax := d.Points[0].Y, d.Points[0].Y
		for _, p := range d.Points[1:] {
			xmin, xmax = min(xmin, p.X), max(xmax, p.X)
			ymin, ymax = min(ymin, p.Y), max(ymax, p.Y)
		}
		r.fill(r.geom.scaleX(xmin), r.geom.scaleY(ymin),
			r.geom.scaleW(xmax-xmin)+1, r.geom.scaleH(ymax-ymin)+1, transparent)
	case graphic.Text:
		face := r.face(d.Size)
		w := font.MeasureString(face, d.Text).Ceil()
		m := face.Metrics()
		r.fill(r.geom.scaleX(d.X), r.geom.scaleY(d.Y)-m.Ascent.Ceil(),
			w, m.Ascent.Ceil()+m.Descent.Ceil(), transparent)
	}
}

func (r *Raster) draw(g graphic.Graphic) {
	switch d := g.Drawable.(type) {
	case graphic.Rect:
		x, y := r.geom.scaleX(d.X), r.geom.scaleY(d.Y)
		w, h := r.geom.scaleW(d.W), r.geom.scaleH(d.H)
		r.fill(x, y, w, h, rgba(d.Fill))
		r.stroke(x, y, w, h, rgba(d.Color))
	case graphic.Vector:
		c := rgba(d.Color)
		for i := 1; i < len(d.Points); i++ {
			r.line(
				r.geom.scaleX(d.Points[i-1].X), r.geom.scaleY(d.Points[i-1].Y),
				r.geom.scaleX(d.Points[i].X), r.geom.scaleY(d.Points[i].Y), c)
		}
	case graphic.Text:
		drawer := font.Drawer{
			Dst:  r.frame,
			Src:  image.NewUniform(rgba(d.Color)),
			Face: r.face(d.Size),
			Dot:  fixed.P(r.geom.scaleX(d.X), r.geom.scaleY(d.Y)),
		}
		drawer.DrawString(d.Text)
	}
}

func (r *Raster) face(s graphic.Size) font.Face {
	if s == graphic.SizeLarge {
		return r.title
	}
	return r.body
}

func rgba(c graphic.Color) color.RGBA {
	return color.RGBA{R: c.Red, G: c.Green, B: c.Blue, A: 255}
}

func (r *Raster) fill(x, y, w, h int, c color.RGBA) {
	draw.Draw(r.frame, image.Rect(x, y, x+w, y+h), image.NewUniform(c), image.Point{}, draw.Src)
}

// stroke draws a one-pixel border just inside the given box.
func (r *Raster) stroke(x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	r.fill(x, y, w, 1, c)
	r.fill(x, y+h-1, w, 1, c)
	r.fill(x, y, 1, h, c)
	r.fill(x+w-1, y, 1, h, c)
}

// line is an integer Bresenham walk between two framebuffer points.
func (r *Raster) line(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.frame.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

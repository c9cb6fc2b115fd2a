// Package engine owns the live set of on-screen graphics. Exactly one
// goroutine runs the engine loop; it is the only code that touches the live
// set or the rendering surface, so neither needs a lock.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edmcoverlay/overlayce/pkg/graphic"
)

// Key identifies a graphic. Two clients using the same graphic id never
// collide.
type Key struct {
	Client uint64
	ID     string
}

// Command is one accepted protocol message, tagged with the connection that
// produced it.
type Command struct {
	ClientID uint64
	Graphic  graphic.Graphic
}

// Snapshot is the full live set as handed to the surface. It is the engine's
// own map; the surface must not retain or mutate it past the call.
type Snapshot = map[Key]*graphic.Graphic

// Surface paints a snapshot. Expired carries the graphics removed or
// superseded this event, so backends without targeted erasure can undraw
// exactly those before repainting. Redraw is only ever called from the
// engine goroutine; any error is fatal to the engine.
type Surface interface {
	Redraw(snapshot Snapshot, expired []graphic.Graphic) error
}

// Engine is the single-owner actor behind the overlay. Feed it commands
// through the channel given to New; everything else is driven by the tick
// source.
type Engine struct {
	inbox   <-chan Command
	ticks   <-chan time.Time
	surface Surface
	fps     int
	log     *zap.Logger
	stats   *Stats

	live map[Key]*graphic.Graphic
}

func New(inbox <-chan Command, ticks <-chan time.Time, surface Surface, fps int, log *zap.Logger, stats *Stats) *Engine {
	return &Engine{
		inbox:   inbox,
		ticks:   ticks,
		surface: surface,
		fps:     fps,
		log:     log,
		stats:   stats,
		live:    make(map[Key]*graphic.Graphic),
	}
}

// Banner shown until something replaces it.
var versionBanner = graphic.Graphic{
	ID:  "version-number",
	TTL: -1,
	Drawable: graphic.Text{
		Text:  "overlayce",
		Size:  graphic.SizeNormal,
		Color: graphic.Color{Red: 255, Green: 255, Blue: 255},
		X:     1175,
		Y:     975,
	},
}

// Run paints an initial frame, then processes commands and ticks one at a
// time until the context is cancelled or the surface fails. Commands and
// ticks race fairly; no two redraws ever overlap because there is only this
// loop.
func (e *Engine) Run(ctx context.Context) error {
	banner := versionBanner
	e.live[Key{Client: 0, ID: banner.ID}] = &banner

	if err := e.redraw(nil); err != nil {
		return err
	}
	e.log.Debug("entering loop")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.inbox:
			if err := e.handleCommand(cmd); err != nil {
				return err
			}
		case <-e.ticks:
			if err := e.handleTick(); err != nil {
				return err
			}
		}
	}
}

// handleCommand stores the incoming graphic, retiring any previous value
// under the same key into this event's expired list. The wire ttl is in
// seconds; it is scaled to ticks here, unconditionally, so the negative
// sentinel stays negative and an explicit zero stays zero.
func (e *Engine) handleCommand(cmd Command) error {
	g := cmd.Graphic
	g.TTL *= e.fps

	key := Key{Client: cmd.ClientID, ID: g.ID}
	var expired []graphic.Graphic
	if prev, ok := e.live[key]; ok {
		expired = append(expired, *prev)
	}
	e.live[key] = &g

	e.stats.Commands.Add(1)
	return e.redraw(expired)
}

// handleTick sweeps the live set: entries at zero expire, positive ttls
// count down, negative ttls never expire.
func (e *Engine) handleTick() error {
	var expired []graphic.Graphic
	for key, g := range e.live {
		switch {
		case g.TTL == 0:
			e.log.Debug("ttl expired", zap.String("graphic_id", g.ID))
			expired = append(expired, *g)
			delete(e.live, key)
		case g.TTL > 0:
			g.TTL--
		}
	}

	e.stats.Ticks.Add(1)
	return e.redraw(expired)
}

func (e *Engine) redraw(expired []graphic.Graphic) error {
	e.stats.Live.Store(int64(len(e.live)))
	if err := e.surface.Redraw(e.live, expired); err != nil {
		return fmt.Errorf("redraw: %w", err)
	}
	return nil
}

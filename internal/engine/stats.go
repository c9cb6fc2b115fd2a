package engine

import "sync/atomic"

// Stats are process counters exposed over the HTTP API. Each field is
// written by exactly one goroutine (the engine, or the listeners for
// Clients) and read from anywhere.
type Stats struct {
	// Commands accepted and applied to the live set.
	Commands atomic.Uint64
	// Ticks swept.
	Ticks atomic.Uint64
	// Current live set size.
	Live atomic.Int64
	// Client connections accepted, TCP and websocket combined.
	Clients atomic.Uint64
}

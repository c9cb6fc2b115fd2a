// Package config resolves the overlay's runtime settings from an optional
// .env file, OVERLAY_* environment variables and command-line flags, plus
// the positional X Y WIDTH HEIGHT window geometry the supervising plugin
// passes.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/edmcoverlay/overlayce/internal/surface"
)

type Config struct {
	// ListenAddr is the TCP ingestion address.
	ListenAddr string
	// HTTPAddr is the sidecar API address; empty disables it.
	HTTPAddr string
	// FPS is the render tick rate; incoming ttls are scaled by it.
	FPS int
	// QueueSize is the command channel capacity.
	QueueSize int
	Debug     bool
	Geometry  surface.Geometry
}

// Load parses flags and environment. Flags win over environment variables,
// which win over the built-in defaults.
func Load(args []string) (Config, error) {
	_ = godotenv.Load() // a .env file is optional

	var cfg Config
	fs := pflag.NewFlagSet("overlayd", pflag.ContinueOnError)
	fs.StringVar(&cfg.ListenAddr, "listen", envString("OVERLAY_ADDR", "127.0.0.1:5010"), "TCP ingestion address")
	fs.StringVar(&cfg.HTTPAddr, "http", envString("OVERLAY_HTTP_ADDR", "127.0.0.1:5011"), "sidecar HTTP address, empty to disable")
	fs.IntVar(&cfg.FPS, "fps", envInt("OVERLAY_FPS", 1), "render ticks per second")
	fs.IntVar(&cfg.QueueSize, "queue", envInt("OVERLAY_QUEUE", 100), "command queue capacity")
	fs.BoolVar(&cfg.Debug, "debug", envBool("OVERLAY_DEBUG"), "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.FPS <= 0 {
		return Config{}, fmt.Errorf("fps must be positive, got %d", cfg.FPS)
	}
	if cfg.QueueSize <= 0 {
		return Config{}, fmt.Errorf("queue capacity must be positive, got %d", cfg.QueueSize)
	}

	geom := surface.Geometry{Width: 1920, Height: 1080}
	switch pos := fs.Args(); len(pos) {
	case 0:
	case 4:
		vals := make([]int, 4)
		for i, p := range pos {
			v, err := strconv.Atoi(p)
			if err != nil {
				return Config{}, fmt.Errorf("geometry argument %q: %w", p, err)
			}
			vals[i] = v
		}
		geom = surface.Geometry{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	default:
		return Config{}, fmt.Errorf("expected either no positional arguments or X Y WIDTH HEIGHT, got %d", len(pos))
	}
	cfg.Geometry = geom
	return cfg, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

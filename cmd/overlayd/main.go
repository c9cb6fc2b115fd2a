// Overlayd is the overlay renderer daemon: it accepts drawing commands over
// a line-oriented TCP protocol (and websockets) and keeps a transparent
// overlay surface redrawn with the current set of live graphics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edmcoverlay/overlayce/internal/config"
	"github.com/edmcoverlay/overlayce/internal/engine"
	"github.com/edmcoverlay/overlayce/internal/httpapi"
	"github.com/edmcoverlay/overlayce/internal/server"
	"github.com/edmcoverlay/overlayce/internal/surface"
	"github.com/edmcoverlay/overlayce/pkg/graphic"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	handle, ok := surface.AcquireBackend()
	if !ok {
		return errors.New("rendering backend already in use")
	}
	defer handle.Release()

	surf, err := surface.NewRaster(handle, cfg.Geometry, logger.Named("surface"))
	if err != nil {
		return err
	}

	logSampleGraphic(logger)

	commands := make(chan engine.Command, cfg.QueueSize)
	stats := &engine.Stats{}
	ids := &server.ClientIDs{}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.FPS))
	defer ticker.Stop()
	eng := engine.New(commands, ticker.C, surf, cfg.FPS, logger.Named("engine"), stats)
	srv := server.New(cfg.ListenAddr, commands, ids, stats, logger.Named("server"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return srv.Listen(ctx) })

	if cfg.HTTPAddr != "" {
		api := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: httpapi.SetupRoutes(ctx, commands, ids, stats, surf, logger.Named("http")),
		}
		g.Go(func() error {
			logger.Info("http api listening", zap.String("addr", cfg.HTTPAddr))
			if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 3*time.Second)
			defer stop()
			_ = api.Shutdown(shutdownCtx)
			return nil
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	// stdout carries the readiness line for the supervising plugin
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func logSampleGraphic(logger *zap.Logger) {
	sample, err := json.Marshal(graphic.Graphic{
		ID:  "sample-graphic",
		TTL: 12345,
		Drawable: graphic.Text{
			Text:  "",
			Size:  graphic.SizeNormal,
			Color: graphic.Color{Red: 0x12, Green: 0x34, Blue: 0x56},
			X:     3,
			Y:     14,
		},
	})
	if err == nil {
		logger.Debug("wire format", zap.ByteString("sample_graphic", sample))
	}
}

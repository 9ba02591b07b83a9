package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/filewatch/fw/internal/backend"
	"github.com/filewatch/fw/internal/config"
	"github.com/filewatch/fw/internal/correlator"
	"github.com/filewatch/fw/internal/emitter"
	"github.com/filewatch/fw/internal/filter"
	"github.com/filewatch/fw/internal/otel"
	"github.com/filewatch/fw/internal/pipeline"
	"github.com/filewatch/fw/internal/procid"
	"github.com/filewatch/fw/internal/timesync"
)

func newCollectCmd() *cobra.Command {
	var (
		extensions    string
		whereExpr     string
		syntheticRate float64
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect file operation events until interrupted (Ctrl+C)",
		Long: `Monitors file open/close operations and outputs events to stderr.
Each event includes the file path, program name, action type, and
timestamp.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCollect(extensions, whereExpr, syntheticRate)
		},
	}

	cmd.Flags().StringVarP(&extensions, "extensions", "e", "",
		"file extensions to monitor, without the leading dot (e.g. rs,md,toml)")
	cmd.Flags().StringVar(&whereExpr, "where", "",
		`additional filter expression over path, name, pid, action, unmatched (e.g. 'name == "vim"')`)
	cmd.Flags().Float64Var(&syntheticRate, "synthetic", 0,
		"use the synthetic event generator at this rate instead of the kernel probe")
	if err := cmd.Flags().MarkHidden("synthetic"); err != nil {
		panic(err)
	}

	return cmd
}

// runCollect assembles the pipeline, starts the backend and runs until
// interrupted or a fatal fault occurs.
func runCollect(extCSV, whereExpr string, syntheticRate float64) error {
	settings, err := config.ParseSettings()
	if err != nil {
		return err
	}

	filterCfg := filter.New(config.ParseExtensions(extCSV))

	var expression *filter.Expression
	if whereExpr != "" {
		expression, err = filter.Compile(whereExpr)
		if err != nil {
			return err
		}
	}

	converter, err := timesync.NewConverter()
	if err != nil {
		return err
	}

	resolver, err := procid.NewResolver(settings.CacheSize, settings.CacheTTL)
	if err != nil {
		return err
	}

	b := selectBackend(syntheticRate, settings, converter)

	em, spans, cleanupOTEL, err := setupEmitter()
	if err != nil {
		return err
	}
	defer cleanupOTEL()

	pipe, err := pipeline.New(
		b,
		converter,
		resolver,
		correlator.Config{Capacity: settings.TableCapacity, MaxAge: settings.HandleMaxAge},
		filterCfg,
		expression,
		em,
		settings.ReadRetries,
	)
	if err != nil {
		return err
	}

	if err := b.Start(filterCfg); err != nil {
		return fmt.Errorf("starting event source: %w", err)
	}

	printBanner(filterCfg)
	log.Println("File monitoring started. Press Ctrl+C to stop.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- pipe.Run(ctx)
	}()

	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		log.Println("Received interrupt, stopping...")
		select {
		case runErr = <-done:
		case <-time.After(settings.ShutdownGrace):
			log.Printf("Warning: pipeline did not drain within %v, forcing shutdown", settings.ShutdownGrace)
		}
	}

	pipe.Discard()
	if spans != nil {
		spans.Flush()
	}
	if err := b.Stop(); err != nil {
		log.Printf("Error stopping event source: %v", err)
	}

	stats := pipe.Stats()
	log.Printf("Done: %d events consumed, %d dropped by the kernel, %d stale handles evicted",
		stats.Consumed, stats.DroppedOverflow, stats.StaleEvicted)

	return runErr
}

// selectBackend picks the kernel probe, or the synthetic generator
// when a rate was requested.
func selectBackend(syntheticRate float64, settings *config.Settings, converter *timesync.Converter) backend.Backend {
	if syntheticRate <= 0 {
		return backend.NewKernel(settings.PerfPages)
	}
	s := backend.NewSyntheticGenerator(syntheticRate)
	s.SetTimestampFunc(func() uint64 {
		return uint64(time.Since(converter.BootTime()))
	})
	return s
}

// setupEmitter builds the emitter chain: always the stderr line
// emitter, wrapped with span export when an OTLP endpoint is set.
func setupEmitter() (emitter.Emitter, *emitter.SpanEmitter, func(), error) {
	var em emitter.Emitter = emitter.NewLineEmitter(os.Stderr)

	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if !otelCfg.Enabled() {
		return em, nil, func() {}, nil
	}

	tp, err := otel.InitProvider(otelCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}

	spans := emitter.NewSpanEmitter(em, tp.Tracer("fw"))
	return spans, spans, cleanup, nil
}

// printBanner writes the filter summary and column header to stderr,
// ahead of the event lines.
func printBanner(cfg filter.Config) {
	if cfg.Empty() {
		fmt.Fprintln(os.Stderr, "Monitoring all file operations")
	} else {
		fmt.Fprintf(os.Stderr, "Monitoring files with extensions: %s\n", strings.Join(cfg.Extensions(), ", "))
	}
	fmt.Fprintln(os.Stderr, "Output format: timestamp | program (pid) | action | file_path")
	fmt.Fprintln(os.Stderr, strings.Repeat("-", 60))
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ammarwa/rocpd-stream/internal/config"
	"github.com/ammarwa/rocpd-stream/internal/filter"
	"github.com/ammarwa/rocpd-stream/internal/otel"
	"github.com/ammarwa/rocpd-stream/internal/output"
	"github.com/ammarwa/rocpd-stream/internal/rocpd"
	"github.com/ammarwa/rocpd-stream/internal/source"
	"github.com/ammarwa/rocpd-stream/internal/stream"
	"github.com/ammarwa/rocpd-stream/internal/timesync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line arguments
	cfg, err := config.ParseArgs(os.Args)
	if err != nil {
		return err
	}

	// Parse ambient configuration from environment
	envCfg, err := config.ParseEnv()
	if err != nil {
		return err
	}

	level, err := log.ParseLevel(envCfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if cfg.Verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if cfg.Info {
		return printInfo(cfg.DBPath)
	}

	var f *filter.Filter
	if expr := cfg.FilterExpression(); expr != "" {
		f, err = filter.Compile(expr)
		if err != nil {
			return fmt.Errorf("compiling filter: %w", err)
		}
	}

	src, err := source.New(source.Config{DBPath: cfg.DBPath, Filter: f})
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.WithError(err).Warn("closing trace source")
		}
	}()

	if cfg.Export {
		return exportSpans(envCfg, src)
	}

	writer := output.NewTextWriter(os.Stdout)
	return src.Drain(func(msg *stream.Message) error {
		return output.Dispatch(writer, msg)
	})
}

// printInfo dumps database metadata instead of the message stream.
// Inspection queries that fail (for instance when an info table is
// absent) are skipped rather than fatal.
func printInfo(dbPath string) error {
	db, err := rocpd.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	fmt.Printf("database: %s\n", db.Path())
	fmt.Printf("dataset: %s\n", db.DatasetID())
	fmt.Printf("events: %d\n", len(db.LoadEvents()))

	if categories, err := db.Categories(); err == nil && len(categories) > 0 {
		fmt.Println("categories:")
		for _, c := range categories {
			fmt.Printf("  %s (%s)\n", c, stream.DisplayName(c))
		}
	}
	if threads, err := db.Threads(); err == nil && len(threads) > 0 {
		fmt.Printf("threads: %v\n", threads)
	}
	if queues, err := db.Queues(); err == nil && len(queues) > 0 {
		fmt.Printf("queues: %v\n", queues)
	}
	if streams, err := db.Streams(); err == nil && len(streams) > 0 {
		fmt.Printf("streams: %v\n", streams)
	}
	return nil
}

// exportSpans re-pairs start/end events into OTLP spans and ships them
// to the configured collector.
func exportSpans(envCfg *config.EnvConfig, src *source.Source) error {
	tp, err := otel.InitProvider(envCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			log.WithError(err).Warn("shutting down OTEL provider")
		}
	}()

	tracer := tp.Tracer("rocpd-stream")

	// Trace timestamps are nanoseconds since the unix epoch, so the
	// converter is anchored at the epoch itself.
	conv := timesync.NewConverter(time.Unix(0, 0), 0)
	exporter := output.NewSpanExporter(tracer, conv)

	err = src.Drain(func(msg *stream.Message) error {
		return output.Dispatch(exporter, msg)
	})
	exporter.Flush()
	if err != nil {
		return err
	}

	log.WithField("events", src.EventCount()).Info("span export complete")
	return nil
}

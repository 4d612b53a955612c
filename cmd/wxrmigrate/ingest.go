package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	goevents "github.com/docker/go-events"

	"github.com/wxrmigrate/wxrcore/bytestream"
	"github.com/wxrmigrate/wxrcore/checkpoint"
	wxrcontext "github.com/wxrmigrate/wxrcore/context"
	"github.com/wxrmigrate/wxrcore/events"
	"github.com/wxrmigrate/wxrcore/metrics"
	wxrcore "github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/wxr"
)

var ingestCursorJob string

func init() {
	IngestCmd.Flags().StringVar(&ingestCursorJob, "job", "", "job id to load/save a reentrancy cursor under (requires redis in the config file)")
}

// IngestCmd streams every entity out of a WXR export, reporting progress
// and, if --job is given, saving a checkpoint when interrupted (SIGINT or
// SIGTERM) or when reading fails, so the run can be resumed.
var IngestCmd = &cobra.Command{
	Use:   "ingest <config> <wxrfile>",
	Short: "`ingest` streams every entity out of a WXR export",
	Long:  "`ingest` streams every entity out of a WXR export, reporting progress as it goes",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runIngest(args[0], args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func runIngest(configPath, wxrPath string) error {
	config, err := loadConfiguration(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := configureLogging(config); err != nil {
		return err
	}

	ctx := wxrcontext.WithLogger(wxrcontext.Background(), wxrcontext.GetLoggerWithFields(
		wxrcontext.Background(), map[string]interface{}{"file": wxrPath, "job": ingestCursorJob}))
	log := wxrcontext.GetLogger(ctx)

	var store *checkpoint.Store
	var cursor string
	if ingestCursorJob != "" {
		if config.Redis.Addr == "" {
			return errors.New("--job requires a redis section in the configuration file")
		}
		store = checkpoint.NewStore(checkpoint.RedisConfig{
			Addr:         config.Redis.Addr,
			Password:     config.Redis.Password,
			DB:           config.Redis.DB,
			MaxIdle:      config.Redis.MaxIdle,
			MaxActive:    config.Redis.MaxActive,
			DialTimeout:  config.Redis.DialTimeout,
			ReadTimeout:  config.Redis.ReadTimeout,
			WriteTimeout: config.Redis.WriteTimeout,
			IdleTimeout:  config.Redis.IdleTimeout,
		})
		defer store.Close()

		cursor, err = store.Load(ingestCursorJob)
		if err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
			return fmt.Errorf("loading checkpoint: %w", err)
		}
	}

	raw, err := bytestream.NewFileSource(wxrPath)
	if err != nil {
		return err
	}
	src := bytestream.New(raw, config.ByteStream.ForgetWindow)

	reader, err := wxr.Create(src, cursor)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	if err := bus.Subscribe(loggingSink{}, metrics.NewQueueListener()); err != nil {
		return err
	}
	defer bus.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		if store != nil && ingestCursorJob != "" {
			if c, cerr := reader.GetReentrancyCursor(); cerr == nil {
				if err := store.Save(ingestCursorJob, c); err != nil {
					log.Warnf("ingest: failed to save checkpoint on interrupt: %v", err)
				}
			}
		}
		os.Exit(130)
	}()

	index := 0
	for {
		entity, err := reader.Next()
		if errors.Is(err, wxr.ErrEndOfStream) {
			break
		}
		if errors.Is(err, wxrcore.ErrNeedMoreInput) {
			if err := src.Pull(1<<20, bytestream.NoMoreThan); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			metrics.ParseWarnings.WithValues(classifyParseError(err)).Inc(1)
			if store != nil && ingestCursorJob != "" {
				if c, cerr := reader.GetReentrancyCursor(); cerr == nil {
					_ = store.Save(ingestCursorJob, c)
				}
			}
			return err
		}

		metrics.EntitiesEmitted.WithValues(string(entity.Type)).Inc(1)
		if err := bus.Publish(events.Event{
			Kind:        events.KindEntityEmitted,
			EntityType:  string(entity.Type),
			EntityIndex: index,
		}); err != nil {
			log.Warnf("ingest: publishing event: %v", err)
		}
		index++
	}

	stats := reader.Stats()
	log.Infof("ingest complete: %d bytes consumed, %d parse errors", stats.BytesConsumed, stats.ParseErrors)
	for typ, count := range stats.EntitiesByType {
		log.Infof("  %s: %d", typ, count)
	}

	if store != nil && ingestCursorJob != "" {
		if err := store.Clear(ingestCursorJob); err != nil {
			log.Warnf("ingest: failed to clear checkpoint: %v", err)
		}
	}

	return nil
}

func classifyParseError(err error) string {
	var fatal *wxrcore.FatalError
	if errors.As(err, &fatal) {
		return fatal.Reason
	}
	return "unknown"
}

// loggingSink is the default events.Sink when no other sink is configured:
// it logs every event at debug level.
type loggingSink struct{}

func (loggingSink) Write(event goevents.Event) error {
	if ev, ok := event.(events.Event); ok {
		logrus.Debugf("event: kind=%s type=%s index=%d", ev.Kind, ev.EntityType, ev.EntityIndex)
	}
	return nil
}

func (loggingSink) Close() error { return nil }

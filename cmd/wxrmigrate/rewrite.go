package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wxrmigrate/wxrcore/bytestream"
	wxrcontext "github.com/wxrmigrate/wxrcore/context"
	"github.com/wxrmigrate/wxrcore/events"
	"github.com/wxrmigrate/wxrcore/markup"
	"github.com/wxrmigrate/wxrcore/metrics"
	wxrcore "github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/urlstream"
	"github.com/wxrmigrate/wxrcore/wxr"
)

// htmlBearingFields lists the WXR field names §4.5 treats as markup
// documents rather than plain text.
var htmlBearingFields = []string{"post_content", "post_excerpt", "comment_content"}

// RewriteCmd streams a WXR export, rewriting every old-base-URL reference
// found in an entity's HTML-bearing fields to the new base, per §4.4.5.
var RewriteCmd = &cobra.Command{
	Use:   "rewrite <config> <wxrfile>",
	Short: "`rewrite` migrates URLs embedded in a WXR export's HTML fields",
	Long:  "`rewrite` migrates URLs embedded in a WXR export's HTML fields from migration.oldbaseurl to migration.newbaseurl",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRewrite(args[0], args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func runRewrite(configPath, wxrPath string) error {
	config, err := loadConfiguration(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := configureLogging(config); err != nil {
		return err
	}

	if config.Migration.OldBaseURL == "" || config.Migration.NewBaseURL == "" {
		return errors.New("rewrite requires migration.oldbaseurl and migration.newbaseurl in the configuration file")
	}
	oldBase, err := urlstream.Parse(config.Migration.OldBaseURL, nil)
	if err != nil {
		return fmt.Errorf("parsing migration.oldbaseurl: %w", err)
	}
	newBase, err := urlstream.Parse(config.Migration.NewBaseURL, nil)
	if err != nil {
		return fmt.Errorf("parsing migration.newbaseurl: %w", err)
	}

	ctx := wxrcontext.WithLogger(wxrcontext.Background(), wxrcontext.GetLoggerWithFields(
		wxrcontext.Background(), map[string]interface{}{"file": wxrPath}))
	log := wxrcontext.GetLogger(ctx)

	raw, err := bytestream.NewFileSource(wxrPath)
	if err != nil {
		return err
	}
	src := bytestream.New(raw, config.ByteStream.ForgetWindow)

	reader, err := wxr.Create(src, "")
	if err != nil {
		return err
	}

	bus := events.NewBus()
	if err := bus.Subscribe(loggingSink{}, metrics.NewQueueListener()); err != nil {
		return err
	}
	defer bus.Close()

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
			return err
		}

		if err := rewriteEntity(entity, oldBase, newBase, bus, index, log); err != nil {
			log.Warnf("rewrite: entity %d: %v", index, err)
		}
		index++
	}

	return nil
}

func rewriteEntity(entity *wxr.Entity, oldBase, newBase *urlstream.URL, bus *events.Bus, index int, log wxrcontext.Logger) error {
	for _, field := range htmlBearingFields {
		doc, ok := entity.Fields[field]
		if !ok || doc == "" {
			continue
		}

		rw := markup.NewRewriter(doc, oldBase)
		if _, err := rw.Scan(); err != nil {
			return err
		}
		rw.ReplaceBaseURL(oldBase, newBase)

		if conflicts := rw.Conflicts(); len(conflicts) > 0 {
			for _, c := range conflicts {
				log.Warnf("rewrite: %s field %s: %v", entity.Type, field, c)
			}
			continue
		}

		updated, err := rw.GetUpdatedHTML()
		if err != nil {
			return err
		}

		for _, w := range rw.Warnings() {
			metrics.ParseWarnings.WithValues(w.Reason).Inc(1)
			_ = bus.Publish(events.Event{
				Kind:        events.KindParseWarning,
				EntityType:  string(entity.Type),
				EntityIndex: index,
				Reason:      w.Reason,
			})
		}

		if updated != doc {
			metrics.EditsApplied.WithValues(field).Inc(1)
			_ = bus.Publish(events.Event{
				Kind:        events.KindEditApplied,
				EntityType:  string(entity.Type),
				EntityIndex: index,
				AttrName:    field,
				Before:      doc,
				After:       updated,
			})
		}

		entity.Fields[field] = updated
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/log"
	"github.com/zjrosen/dixel/internal/presentation"
	"github.com/zjrosen/dixel/internal/ui/eventlog"
	"github.com/zjrosen/dixel/internal/watcher"
)

var (
	eventsEmitter string
	eventsName    string
	eventsAfter   int64
	eventsLimit   int
	eventsFollow  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the committed event history",
	Long: `Show events committed to the ledger, oldest first.

With --follow an interactive viewer opens and new events appear as other
dixel commands commit them.

Examples:
  dixel events --name Transfer --limit 20
  dixel events --emitter 0x... --follow`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter := engine.EventFilter{
			Name:     eventsName,
			AfterSeq: eventsAfter,
			Limit:    eventsLimit,
		}
		if eventsEmitter != "" {
			addr, err := parseAddress(eventsEmitter)
			if err != nil {
				return fmt.Errorf("--emitter: %w", err)
			}
			filter.Emitter = addr
		}

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			source := historySource{engine: e.engine}
			if eventsFollow {
				return followEvents(ctx, source, filter)
			}
			stored, err := source.Events(ctx, filter)
			if err != nil {
				return err
			}
			dtos := make([]presentation.EventDTO, len(stored))
			for i, ev := range stored {
				dtos[i] = presentation.FromStoredEvent(ev)
			}
			return output(cmd, dtos, func(_ io.Writer, f *presentation.Formatter) error {
				for _, ev := range dtos {
					if err := f.FormatEvent(ev); err != nil {
						return err
					}
				}
				return nil
			})
		})
	},
}

// historySource reads events through the engine so reads are traced.
type historySource struct {
	engine *engine.Engine
}

func (s historySource) Events(ctx context.Context, filter engine.EventFilter) ([]engine.StoredEvent, error) {
	return s.engine.History(ctx, filter)
}

// followEvents runs the event viewer, refetching whenever the database file
// changes.
func followEvents(ctx context.Context, source eventlog.Source, filter engine.EventFilter) error {
	w, err := watcher.New(watcher.DefaultConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("watching database: %w", err)
	}
	changes, err := w.Start()
	if err != nil {
		return fmt.Errorf("watching database: %w", err)
	}
	defer func() {
		if err := w.Stop(); err != nil {
			log.ErrorErr(log.CatWatcher, "stopping watcher", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The viewer pages forward from AfterSeq itself.
	filter.Limit = 0
	p := tea.NewProgram(eventlog.New(ctx, source, filter, changes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func init() {
	eventsCmd.Flags().StringVar(&eventsEmitter, "emitter", "", "only events emitted by this address")
	eventsCmd.Flags().StringVar(&eventsName, "name", "", "only events with this name, e.g. Transfer")
	eventsCmd.Flags().Int64Var(&eventsAfter, "after", 0, "only events after this sequence number")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "maximum number of events (0 = all)")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "open a live viewer")
	rootCmd.AddCommand(eventsCmd)
}


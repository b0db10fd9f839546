package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/tabsum/internal/tool"
)

var (
	watchSchedule    string
	watchMinInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-summarize a file every time it changes, printing one response per change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		path := args[0]
		trig := newTrigger()
		errs, err := watchFile(ctx, path, trig.fire)
		if err != nil {
			return err
		}
		if watchSchedule != "" {
			c, err := startSchedule(watchSchedule, trig.fire)
			if err != nil {
				return err
			}
			defer c.Stop()
		}

		r := newRunner()
		limiter := rate.NewLimiter(rate.Every(watchMinInterval), 1)
		logger.Info("watching", slog.String("file", path), slog.String("schedule", watchSchedule))
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-errs:
				return err
			case <-trig.C:
				if err := limiter.Wait(ctx); err != nil {
					// cancelled while throttled
					return nil
				}
				if err := tool.WriteResponse(cmd.OutOrStdout(), r.Respond(path)); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", `also re-analyze on a cron schedule, e.g. "@every 1m" (for filesystems without change events)`)
	watchCmd.Flags().DurationVar(&watchMinInterval, "min-interval", 250*time.Millisecond, "minimum time between two analyses; bursts of events are coalesced")
}

// trigger coalesces change notifications: while one is pending further
// fires are dropped.
type trigger struct {
	C chan struct{}
}

func newTrigger() *trigger {
	return &trigger{C: make(chan struct{}, 1)}
}

func (t *trigger) fire() {
	select {
	case t.C <- struct{}{}:
	default:
	}
}

// watchFile calls onChange for every write or create event on path until ctx
// is done. The parent directory is watched so editors that replace the file
// on save are still seen. A watcher failure is delivered on the returned
// channel.
func watchFile(ctx context.Context, path string, onChange func()) (<-chan error, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	errs := make(chan error, 1)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				errs <- fmt.Errorf("watch %s: %w", path, err)
				return
			}
		}
	}()
	return errs, nil
}

// startSchedule runs onTick on the given cron spec until the returned
// scheduler is stopped.
func startSchedule(spec string, onTick func()) (*cron.Cron, error) {
	if spec == "" {
		return nil, errors.New("empty schedule")
	}
	c := cron.New()
	if err := c.AddFunc(spec, onTick); err != nil {
		return nil, fmt.Errorf("invalid --schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

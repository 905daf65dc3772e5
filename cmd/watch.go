package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/live"
	"github.com/eduverse/eduverse/internal/poller"
	"github.com/eduverse/eduverse/internal/view"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	flagWatchFor string
	flagNoLive   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow stats, news and feedback without the interactive browser",
	Long: `Poll the panels and follow live updates, printing each change as a line.

Runs until interrupted, or for the span given with --for (e.g. 10m, 2h, 1d).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if flagWatchFor != "" {
			span, err := parseSpan(flagWatchFor)
			if err != nil {
				return fmt.Errorf("invalid --for value: %w", err)
			}
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, span)
			defer cancel()
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		panels := view.NewPanels(s.cfg.GetCacheSize(), s.cfg.GetFeedbackVisible(), s.db, s.logger)
		if err := panels.Restore(); err != nil {
			s.logger.Warn("restoring cached panels", zap.Error(err))
		}

		w := &watcher{out: cmd.OutOrStdout(), panels: panels}
		p := poller.New(s.client, s.cfg.PollDuration(), s.db, s.logger)
		w.restored(s.db.NeedsRefresh(p.Interval()))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return p.Run(gctx, w.apply)
		})
		if !flagNoLive {
			l := live.New(live.Options{
				URL:    s.cfg.EventsURL(),
				APIKey: s.cfg.APIKey,
				Logger: s.logger,
				OnReconnect: func() {
					w.printf("reconnected, refreshing")
					p.Tick(gctx, w.apply)
				},
			}, w)
			g.Go(func() error {
				return l.Run(gctx)
			})
		}

		err = g.Wait()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().StringVar(&flagWatchFor, "for", "", "stop after this long (e.g. 10m, 2h, 1d)")
	watchCmd.Flags().BoolVar(&flagNoLive, "no-live", false, "poll only, without the live event stream")
}

// watcher prints panel changes as they reach the shared Panels.
type watcher struct {
	mu     sync.Mutex
	out    io.Writer
	panels *view.Panels
}

func (w *watcher) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s  %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// restored reports panels carried over from the cache, flagged when they
// are older than one poll interval.
func (w *watcher) restored(stale bool) {
	news, fb := len(w.panels.NewsWindow()), len(w.panels.FeedbackWindow())
	if news+fb == 0 {
		return
	}
	suffix := ""
	if stale {
		suffix = " (stale, refreshing)"
	}
	w.printf("cached: %d news, %d feedback%s", news, fb, suffix)
}

func (w *watcher) apply(r poller.Result) {
	w.panels.Apply(r)
	if r.Err != nil {
		w.printf("%s: %s", r.Feed, api.UserMessage(r.Err))
		return
	}
	v := w.panels.Snapshot()
	switch r.Feed {
	case poller.FeedStats:
		w.printf("users: %s", v.Users)
	case poller.FeedTopicCount:
		w.printf("topics: %s", v.TopicCount)
	case poller.FeedNews:
		w.printf("news: %d in window", len(v.News))
	case poller.FeedFeedback:
		w.printf("feedback: %d in window", len(v.Feedback)+v.Hidden)
	}
}

func (w *watcher) FeedbackUpdate(e api.FeedbackEntry) {
	w.panels.FeedbackUpdate(e)
	w.printf("feedback from %s on %s: %s", e.User, e.Topic, e.Comment)
}

func (w *watcher) StatsUpdate(s api.Stats) {
	w.panels.StatsUpdate(s)
	w.printf("users: %d", s.UsersCount)
}

func (w *watcher) NewsUpdate(n api.NewsItem) {
	w.panels.NewsUpdate(n)
	w.printf("news: %s", n.Title)
}

// parseSpan accepts time.ParseDuration syntax plus a whole-day form like 7d.
func parseSpan(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

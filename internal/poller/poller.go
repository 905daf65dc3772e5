// Package poller periodically refreshes the auxiliary panels: user stats,
// topic count, news and recent feedback. Each feed is fetched on its own so
// one failure never holds back the others.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/eduverse/eduverse/internal/api"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Feed int

const (
	FeedStats Feed = iota
	FeedTopicCount
	FeedNews
	FeedFeedback
)

// Feeds lists every feed refreshed on a tick.
var Feeds = []Feed{FeedStats, FeedTopicCount, FeedNews, FeedFeedback}

func (f Feed) String() string {
	switch f {
	case FeedStats:
		return "stats"
	case FeedTopicCount:
		return "topic_count"
	case FeedNews:
		return "news"
	case FeedFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// Source is the part of the API the poller reads.
type Source interface {
	Stats(ctx context.Context) (api.Stats, error)
	ListTopics(ctx context.Context) ([]api.Topic, error)
	News(ctx context.Context) ([]api.NewsItem, error)
	Feedback(ctx context.Context) ([]api.FeedbackEntry, error)
}

// Result is the outcome of fetching one feed. Only the field matching Feed
// is set, and only when Err is nil.
type Result struct {
	Feed       Feed
	Stats      api.Stats
	TopicCount int
	News       []api.NewsItem
	Feedback   []api.FeedbackEntry
	Err        error
}

// Fetch retrieves a single feed.
func Fetch(ctx context.Context, src Source, f Feed) Result {
	r := Result{Feed: f}
	switch f {
	case FeedStats:
		r.Stats, r.Err = src.Stats(ctx)
	case FeedTopicCount:
		topics, err := src.ListTopics(ctx)
		r.TopicCount, r.Err = len(topics), err
	case FeedNews:
		r.News, r.Err = src.News(ctx)
	case FeedFeedback:
		r.Feedback, r.Err = src.Feedback(ctx)
	}
	return r
}

// Syncer records when a refresh last succeeded.
type Syncer interface {
	SetLastSync() error
}

type Poller struct {
	src      Source
	interval time.Duration
	syncer   Syncer
	logger   *zap.Logger
}

// New creates a poller. syncer may be nil.
func New(src Source, interval time.Duration, syncer Syncer, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{src: src, interval: interval, syncer: syncer, logger: logger}
}

func (p *Poller) Interval() time.Duration { return p.interval }

// Tick fetches every feed concurrently and hands each result to sink as it
// arrives. Calls to sink are serialized. It returns the number of feeds that
// failed.
func (p *Poller) Tick(ctx context.Context, sink func(Result)) int {
	var (
		mu     sync.Mutex
		failed int
		g      errgroup.Group
	)

	for _, f := range Feeds {
		g.Go(func() error {
			r := Fetch(ctx, p.src, f)
			mu.Lock()
			defer mu.Unlock()
			if r.Err != nil {
				failed++
				p.logger.Warn("poll failed", zap.Stringer("feed", f), zap.Error(r.Err))
			}
			sink(r)
			// Failures stay inside their own feed.
			return nil
		})
	}
	_ = g.Wait()

	if failed < len(Feeds) && p.syncer != nil {
		if err := p.syncer.SetLastSync(); err != nil {
			p.logger.Warn("recording last sync", zap.Error(err))
		}
	}
	return failed
}

// Run ticks once immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context, sink func(Result)) error {
	p.Tick(ctx, sink)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx, sink)
		}
	}
}

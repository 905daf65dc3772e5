// Package live keeps a push connection to the server open and routes
// feedback, stats and news events to a Sink.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eduverse/eduverse/internal/api"
	"go.uber.org/zap"
)

const (
	EventFeedback = "feedback_update"
	EventStats    = "stats_update"
	EventNews     = "news_update"
)

// Sink receives decoded events. The listener calls it from its own
// goroutine, one event at a time.
type Sink interface {
	FeedbackUpdate(api.FeedbackEntry)
	StatsUpdate(api.Stats)
	NewsUpdate(api.NewsItem)
}

type handler func(data []byte) error

type Options struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger

	// OnReconnect runs after the stream is re-established following a drop.
	// Events sent while disconnected are lost, so callers refetch here.
	OnReconnect func()

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

type Listener struct {
	url         string
	apiKey      string
	client      *http.Client
	logger      *zap.Logger
	onReconnect func()
	minBackoff  time.Duration
	maxBackoff  time.Duration
	handlers    map[string]handler
}

func New(opts Options, sink Sink) *Listener {
	l := &Listener{
		url:         opts.URL,
		apiKey:      opts.APIKey,
		client:      opts.HTTPClient,
		logger:      opts.Logger,
		onReconnect: opts.OnReconnect,
		minBackoff:  opts.MinBackoff,
		maxBackoff:  opts.MaxBackoff,
	}
	if l.client == nil {
		// No client timeout: the stream stays open indefinitely.
		l.client = &http.Client{}
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.minBackoff <= 0 {
		l.minBackoff = time.Second
	}
	if l.maxBackoff < l.minBackoff {
		l.maxBackoff = max(30*time.Second, l.minBackoff)
	}

	l.handlers = map[string]handler{
		EventFeedback: func(data []byte) error {
			var e api.FeedbackEntry
			if err := json.Unmarshal(data, &e); err != nil {
				return err
			}
			sink.FeedbackUpdate(e)
			return nil
		},
		EventStats: func(data []byte) error {
			var s api.Stats
			if err := json.Unmarshal(data, &s); err != nil {
				return err
			}
			sink.StatsUpdate(s)
			return nil
		},
		EventNews: func(data []byte) error {
			var n api.NewsItem
			if err := json.Unmarshal(data, &n); err != nil {
				return err
			}
			sink.NewsUpdate(n)
			return nil
		},
	}
	return l
}

// Dispatch routes one event through the handler table. Unknown names are
// ignored.
func (l *Listener) Dispatch(name string, data []byte) error {
	h, ok := l.handlers[name]
	if !ok {
		l.logger.Debug("ignoring event", zap.String("event", name))
		return nil
	}
	if err := h(data); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// Run holds the stream open until ctx is done, reconnecting with capped
// exponential backoff. It always returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.minBackoff
	connected := false

	for {
		err := l.stream(ctx, func() {
			if connected && l.onReconnect != nil {
				l.onReconnect()
			}
			connected = true
			backoff = l.minBackoff
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("event stream dropped", zap.Error(err), zap.Duration("retry_in", backoff))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, l.maxBackoff)
	}
}

var errStreamClosed = errors.New("event stream closed by server")

func (l *Listener) stream(ctx context.Context, onOpen func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if l.apiKey != "" {
		req.Header.Set("X-API-Key", l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return &api.NetworkError{Op: "events", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &api.ServerError{Op: "events", Status: resp.StatusCode}
	}

	l.logger.Info("event stream connected", zap.String("url", l.url))
	onOpen()

	err = readEvents(resp.Body, func(name string, data []byte) {
		if err := l.Dispatch(name, data); err != nil {
			l.logger.Warn("bad event", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	return errStreamClosed
}

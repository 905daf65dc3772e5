package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/host"
	"github.com/eduverse/eduverse/internal/live"
	"go.uber.org/zap"
)

// liveSink forwards push events into the update loop.
type liveSink struct {
	send func(tea.Msg)
}

func (s liveSink) FeedbackUpdate(e api.FeedbackEntry) { s.send(feedbackPushedMsg{entry: e}) }

func (s liveSink) StatsUpdate(st api.Stats) { s.send(statsPushedMsg{stats: st}) }

func (s liveSink) NewsUpdate(n api.NewsItem) { s.send(newsPushedMsg{item: n}) }

// Run starts the TUI application and the live listener, and blocks until
// the user quits or ctx is done.
func Run(ctx context.Context, opts RunOpts) error {
	app := NewApp(opts)

	var progOpts []tea.ProgramOption
	app.host.Expand()
	if t, ok := app.host.(*host.Terminal); ok && t.Expanded() {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	progOpts = append(progOpts, tea.WithContext(ctx))

	p := tea.NewProgram(app, progOpts...)
	app.send = p.Send

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if opts.Events.URL != "" {
		evOpts := opts.Events
		if evOpts.Logger == nil {
			evOpts.Logger = app.logger
		}
		evOpts.OnReconnect = func() { p.Send(reconnectedMsg{}) }
		l := live.New(evOpts, liveSink{send: p.Send})

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Run(ctx); err != nil && ctx.Err() == nil {
				app.logger.Warn("live listener stopped", zap.Error(err))
			}
		}()
	}

	_, err := p.Run()
	cancel()
	wg.Wait()
	return err
}

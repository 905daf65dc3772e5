package cmd

import (
	"errors"
	"os"

	"github.com/eduverse/eduverse/internal/feedback"
	"github.com/eduverse/eduverse/internal/host"
	"github.com/eduverse/eduverse/internal/live"
	"github.com/eduverse/eduverse/internal/poller"
	"github.com/eduverse/eduverse/internal/topics"
	"github.com/eduverse/eduverse/internal/tui"
	"github.com/eduverse/eduverse/internal/view"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("the interactive browser needs a terminal; try `eduverse topics` instead")

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNoTerminal
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
	state := view.NewState(topics.NewStore(), panels, view.Options{
		NoticeTTL:  s.cfg.NoticeDuration(),
		SuccessTTL: s.cfg.SuccessDuration(),
	})

	h := host.NewTerminal(s.cfg.UserID, s.logger)
	return tui.Run(cmd.Context(), tui.RunOpts{
		Client:   s.client,
		State:    state,
		Poller:   poller.New(s.client, s.cfg.PollDuration(), s.db, s.logger),
		Identity: &feedback.Resolver{Host: h, Names: s.db},
		Host:     h,
		Sync:     s.db,
		Logger:   s.logger,

		BaseURL:        s.cfg.APIURL,
		RequestTimeout: s.cfg.RequestTimeoutDuration(),
		Events: live.Options{
			URL:    s.cfg.EventsURL(),
			APIKey: s.cfg.APIKey,
		},
	})
}

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eduverse/eduverse/internal/feedback"
	"github.com/eduverse/eduverse/internal/host"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <topic-id> <comment>",
	Short: "Send feedback on a topic",
	Long: `Send a comment on a topic.

Feedback is sent under the user_id from config (or EDUVERSE_USER_ID). Without
one, eduverse asks for a display name once and remembers it.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		h := host.NewTerminal(s.cfg.UserID, s.logger)
		resolver := &feedback.Resolver{Host: h, Names: s.db}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			resolver.Prompt = linePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		}

		user, err := resolver.Resolve(cmd.Context())
		if err != nil {
			return describe(err)
		}

		form := feedback.NewForm()
		comment := strings.Join(args[1:], " ")
		if err := form.Submit(cmd.Context(), s.client, args[0], comment, user); err != nil {
			if msg := form.Message(); msg != "" {
				return errors.New(msg)
			}
			return describe(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Thanks for your feedback!")
		return nil
	},
}

// linePrompter asks for a display name on out and reads one line from in.
func linePrompter(in io.Reader, out io.Writer) feedback.Prompter {
	return func(ctx context.Context) (string, error) {
		fmt.Fprint(out, "Display name: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}

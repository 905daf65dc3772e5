package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/topics"
	"github.com/eduverse/eduverse/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var topicsCmd = &cobra.Command{
	Use:   "topics [query]",
	Short: "List topics, optionally filtered by title",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		store := topics.NewStore()
		if _, err := store.LoadAll(cmd.Context(), s.client); err != nil {
			return describe(fmt.Errorf("loading topics: %w", err))
		}
		printTopics(cmd.OutOrStdout(), store, strings.Join(args, " "))
		return nil
	},
}

func printTopics(w io.Writer, store *topics.Store, query string) {
	matches := store.Filter(query)
	if len(matches) == 0 {
		if query == "" {
			fmt.Fprintln(w, "No topics yet.")
			return
		}
		fmt.Fprintf(w, "No topics match %q.\n", query)
		if sugg := store.Suggest(query, 3); len(sugg) > 0 {
			fmt.Fprintln(w, "Did you mean:")
			for _, t := range sugg {
				fmt.Fprintf(w, "  %d\t%s\n", t.ID, t.Title)
			}
		}
		return
	}

	rows := make([][]string, 0, len(matches))
	for _, t := range matches {
		rows = append(rows, []string{strconv.Itoa(t.ID), t.Title})
	}
	fmt.Fprintln(w, plainTable([]string{"ID", "TITLE"}, rows))
}

// plainTable lays rows out in borderless, left-aligned columns.
func plainTable(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().PaddingRight(2)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers(headers...).
		Rows(rows...).
		String()
}

var showCmd = &cobra.Command{
	Use:   "show <topic-id>",
	Short: "Print a topic with its examples and media",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("topic id must be a number, got %q", args[0])
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		return showTopic(cmd.Context(), cmd.OutOrStdout(), s.client, id, outputWidth())
	},
}

type topicGetter interface {
	GetTopic(ctx context.Context, id int) (api.Topic, error)
}

func showTopic(ctx context.Context, w io.Writer, g topicGetter, id, width int) error {
	t, err := g.GetTopic(ctx, id)
	if api.IsNotFound(err) {
		return fmt.Errorf("no topic with id %d", id)
	}
	if err != nil {
		return describe(err)
	}
	printTopic(w, t, width)
	return nil
}

func printTopic(w io.Writer, t api.Topic, width int) {
	doc := view.Render(t).Document(width, func(string) bool { return true })
	fmt.Fprintln(w, doc)
}

// outputWidth is the terminal width, or 80 when stdout is not a terminal.
func outputWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return min(w, 100)
	}
	return 80
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/eduverse/eduverse/internal/admin"
	"github.com/eduverse/eduverse/internal/topics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagTitle     string
	flagStructure string
	flagExamples  string
	flagImage     string
	flagVideo     string
	flagDryRun    bool
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Manage topics",
}

var topicAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a topic, uploading image and video files first",
	Long: `Create a topic.

--structure and --examples take rich text, or @path to read it from a file.
--image and --video take either a local file, which is uploaded, or a link.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		structure, err := readText(flagStructure)
		if err != nil {
			return fmt.Errorf("--structure: %w", err)
		}
		examples, err := readText(flagExamples)
		if err != nil {
			return fmt.Errorf("--examples: %w", err)
		}
		d := admin.Draft{
			Title:     flagTitle,
			Structure: structure,
			Examples:  examples,
			Image:     admin.ParseAttachment(flagImage),
			Video:     admin.ParseAttachment(flagVideo),
		}
		if err := d.Validate(); err != nil {
			return describe(err)
		}

		out := cmd.OutOrStdout()
		printPreview(out, d.Preview(outputWidth()))
		if flagDryRun {
			return nil
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		return publishTopic(cmd.Context(), out, cmd.ErrOrStderr(), s.client, d, s.logger)
	},
}

// publisher is the API surface topic add drives.
type publisher interface {
	admin.Client
	topics.Lister
}

// publishTopic uploads the draft's files, creates the topic and reports the
// new topic count.
func publishTopic(ctx context.Context, out, errOut io.Writer, c publisher, d admin.Draft, logger *zap.Logger) error {
	res, err := admin.Submit(ctx, c, d, logger)
	if err != nil {
		return describe(err)
	}
	for _, up := range res.Uploads {
		fmt.Fprintf(out, "Uploaded %s (%s) -> %s\n", up.Path, humanize.Bytes(uint64(up.Size)), up.URL)
	}
	fmt.Fprintf(out, "Created %q.\n", res.Topic.Title)

	store := topics.NewStore()
	if _, err := store.LoadAll(ctx, c); err != nil {
		// The topic exists; only the refreshed count is missing.
		fmt.Fprintln(errOut, "Could not reload topics:", describe(err))
		return nil
	}
	fmt.Fprintf(out, "%s now.\n", english.Plural(store.Len(), "topic", ""))
	return nil
}

func init() {
	f := topicAddCmd.Flags()
	f.StringVar(&flagTitle, "title", "", "topic title")
	f.StringVar(&flagStructure, "structure", "", "structure text, or @file")
	f.StringVar(&flagExamples, "examples", "", "examples text, or @file")
	f.StringVar(&flagImage, "image", "", "image file or URL")
	f.StringVar(&flagVideo, "video", "", "video file or URL")
	f.BoolVar(&flagDryRun, "dry-run", false, "show the preview without creating anything")
	topicCmd.AddCommand(topicAddCmd)
}

// readText returns v, or the contents of the file named after a leading @.
func readText(v string) (string, error) {
	path, ok := strings.CutPrefix(v, "@")
	if !ok {
		return v, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printPreview(w io.Writer, p admin.Preview) {
	fmt.Fprintln(w, p.Title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(p.Title))))
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Structure)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples")
	fmt.Fprintln(w, p.Examples)
	if p.Image != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Image:", p.Image)
	}
	switch {
	case p.VideoFile != "":
		fmt.Fprintln(w, "Video file:", p.VideoFile)
	case p.Video.URL != "":
		fmt.Fprintln(w, "Video:", p.Video.EmbedURL())
	}
	fmt.Fprintln(w)
}

// Package admin builds new topics: it validates a draft, uploads local
// attachments and creates the topic on the server.
package admin

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/media"
	"github.com/eduverse/eduverse/internal/richtext"
	"go.uber.org/zap"
)

// Attachment is either a local file to upload or a link used as-is.
type Attachment struct {
	Path string
	Link string
}

// ParseAttachment treats http(s) URLs as links and anything else as a path.
func ParseAttachment(s string) Attachment {
	s = strings.TrimSpace(s)
	if s == "" {
		return Attachment{}
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Attachment{Link: s}
	}
	return Attachment{Path: s}
}

func (a Attachment) IsZero() bool { return a.Path == "" && a.Link == "" }

func (a Attachment) IsFile() bool { return a.Path != "" }

func (a Attachment) String() string {
	if a.IsFile() {
		return filepath.Base(a.Path)
	}
	return a.Link
}

type Draft struct {
	Title     string
	Structure string
	Examples  string
	Image     Attachment
	Video     Attachment
}

// Validate checks the draft without touching the network.
func (d Draft) Validate() error {
	required := []struct{ field, value string }{
		{"title", d.Title},
		{"structure", d.Structure},
		{"examples", d.Examples},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &api.ValidationError{Field: r.field, Message: r.field + " is required"}
		}
	}
	if err := checkAttachment("image", d.Image); err != nil {
		return err
	}
	return checkAttachment("video", d.Video)
}

func checkAttachment(field string, a Attachment) error {
	switch {
	case a.IsZero():
		return nil
	case a.IsFile():
		info, err := os.Stat(a.Path)
		if err != nil {
			return &api.ValidationError{Field: field, Message: fmt.Sprintf("cannot read %s", a.Path)}
		}
		if !info.Mode().IsRegular() {
			return &api.ValidationError{Field: field, Message: fmt.Sprintf("%s is not a regular file", a.Path)}
		}
	default:
		u, err := url.Parse(a.Link)
		if err != nil || u.Host == "" {
			return &api.ValidationError{Field: field, Message: "invalid link"}
		}
	}
	return nil
}

// Preview is how the draft will look once created.
type Preview struct {
	Title     string
	Structure string
	Examples  string
	Image     string
	Video     media.Video
	// VideoFile is set when the video is a local file still to be uploaded.
	VideoFile string
}

func (d Draft) Preview(width int) Preview {
	p := Preview{
		Title:     strings.TrimSpace(d.Title),
		Structure: richtext.Render(d.Structure, width),
		Examples:  richtext.Render(d.Examples, width),
		Image:     d.Image.String(),
	}
	if d.Video.IsFile() {
		p.VideoFile = d.Video.String()
	} else {
		p.Video = media.Classify(d.Video.Link)
	}
	return p
}

// Client is the part of the API used to publish a topic.
type Client interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	CreateTopic(ctx context.Context, t api.NewTopic) error
}

// Upload describes one attachment sent to the server.
type Upload struct {
	Field string
	Path  string
	Size  int64
	URL   string
}

type Result struct {
	Topic   api.NewTopic
	Uploads []Upload
}

// Submit validates the draft, uploads file attachments and creates the
// topic. Nothing is created when an upload fails.
func Submit(ctx context.Context, c Client, d Draft, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := d.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	resolve := func(field string, a Attachment) (string, error) {
		if !a.IsFile() {
			return a.Link, nil
		}
		up, err := uploadFile(ctx, c, field, a.Path)
		if err != nil {
			return "", err
		}
		logger.Info("uploaded attachment",
			zap.String("field", field),
			zap.String("path", up.Path),
			zap.Int64("bytes", up.Size),
			zap.String("url", up.URL))
		res.Uploads = append(res.Uploads, up)
		return up.URL, nil
	}

	imageURL, err := resolve("image", d.Image)
	if err != nil {
		return Result{}, err
	}
	videoURL, err := resolve("video", d.Video)
	if err != nil {
		return Result{}, err
	}

	res.Topic = api.NewTopic{
		Title:     strings.TrimSpace(d.Title),
		Structure: d.Structure,
		Examples:  d.Examples,
		ImageURL:  imageURL,
		VideoURL:  videoURL,
	}
	if err := c.CreateTopic(ctx, res.Topic); err != nil {
		return Result{}, fmt.Errorf("creating topic: %w", err)
	}
	logger.Info("topic created", zap.String("title", res.Topic.Title))
	return res, nil
}

func uploadFile(ctx context.Context, c Client, field, path string) (Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return Upload{}, fmt.Errorf("opening %s: %w", field, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Upload{}, fmt.Errorf("reading %s: %w", field, err)
	}

	u, err := c.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return Upload{}, fmt.Errorf("uploading %s: %w", field, err)
	}
	return Upload{Field: field, Path: path, Size: info.Size(), URL: u}, nil
}

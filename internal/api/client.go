package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 8 << 20

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	// HTTPClient, when set, is used for every request including uploads.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the EduVerse HTTP API. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	apiKey  string
	http    *http.Client
	uploads *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api url scheme must be http or https, got %q", base.Scheme)
	}

	hc, uploads := opts.HTTPClient, opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
		// Uploads are bounded by the caller's context only.
		uploads = &http.Client{}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		base:    base,
		apiKey:  opts.APIKey,
		http:    hc,
		uploads: uploads,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.Named("api"),
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.JoinPath(path).String()
}

func (c *Client) ListTopics(ctx context.Context) ([]Topic, error) {
	var topics []Topic
	if err := c.getJSON(ctx, "list topics", "/api/topics", &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *Client) GetTopic(ctx context.Context, id int) (Topic, error) {
	var t Topic
	err := c.getJSON(ctx, "get topic", "/api/topics/"+strconv.Itoa(id), &t)
	return t, err
}

func (c *Client) CreateTopic(ctx context.Context, t NewTopic) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding topic: %w", err)
	}
	var resp feedbackResponse
	if err := c.do(ctx, "create topic", http.MethodPost, "/api/topics", bytes.NewReader(body), "application/json", &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return &ServerError{Op: "create topic", Status: http.StatusOK, Message: resp.Error}
	}
	return nil
}

// Upload streams r as multipart field "file" and returns the URL the
// server stored it under. Only ctx bounds how long it may take.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var resp uploadResponse
	err := c.send(ctx, c.uploads, "upload", http.MethodPost, "/api/upload", pr, mw.FormDataContentType(), &resp)
	pr.Close()
	<-done
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", &ServerError{Op: "upload", Status: http.StatusOK, Message: "upload response has no url"}
	}
	return resp.URL, nil
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.getJSON(ctx, "stats", "/api/stats", &s)
	return s, err
}

func (c *Client) News(ctx context.Context) ([]NewsItem, error) {
	var news []NewsItem
	if err := c.getJSON(ctx, "news", "/api/news", &news); err != nil {
		return nil, err
	}
	return news, nil
}

func (c *Client) Feedback(ctx context.Context) ([]FeedbackEntry, error) {
	var entries []FeedbackEntry
	if err := c.getJSON(ctx, "feedback", "/api/feedback", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SubmitFeedback posts a comment. A 2xx reply is only a success when its
// status field is "ok".
func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding feedback: %w", err)
	}
	var resp feedbackResponse
	if err := c.do(ctx, "submit feedback", http.MethodPost, "/api/feedback", bytes.NewReader(body), "application/json", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		msg := resp.Error
		if msg == "" {
			msg = "feedback was not accepted"
		}
		return &ServerError{Op: "submit feedback", Status: http.StatusOK, Message: msg}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	return c.send(ctx, c.http, op, method, path, body, contentType, out)
}

func (c *Client) send(ctx context.Context, hc *http.Client, op, method, path string, body io.Reader, contentType string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("op", op), zap.String("request_id", reqID), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	c.log.Debug("request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.String("request_id", reqID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &ServerError{Op: op, Status: resp.StatusCode, Message: eb.Error}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ServerError{Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

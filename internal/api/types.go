package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Topic is one unit of browsable content. The list endpoint may only fill
// ID and Title; the detail endpoint fills everything.
type Topic struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Structure string `json:"structure,omitempty"`
	Examples  string `json:"examples,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	VideoURL  string `json:"video_url,omitempty"`
}

// NewTopic is the body of POST /api/topics.
type NewTopic struct {
	Title     string `json:"title"`
	Structure string `json:"structure"`
	Examples  string `json:"examples"`
	ImageURL  string `json:"image_url"`
	VideoURL  string `json:"video_url"`
}

type Stats struct {
	UsersCount int `json:"users_count"`
}

type NewsItem struct {
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
}

type FeedbackEntry struct {
	User      Label     `json:"user"`
	Topic     Label     `json:"topic"`
	Comment   string    `json:"comment"`
	CreatedAt Timestamp `json:"created_at,omitempty"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	UserID  string `json:"user_id"`
	TopicID int    `json:"topic_id"`
	Comment string `json:"comment"`
}

type feedbackResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Label is a display string the server may send as either a JSON string or
// a number (user ids and topic ids both show up in feedback payloads).
type Label string

func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = Label(n.String())
	return nil
}

func (l Label) String() string { return string(l) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp keeps the raw created_at string alongside its parsed time.
// Time is zero when the raw value matched none of the known layouts.
type Timestamp struct {
	Raw  string
	Time time.Time
}

func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	ts := Timestamp{Raw: raw}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t
			break
		}
	}
	return ts
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseTimestamp(s)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw)
}

func (t Timestamp) IsZero() bool { return t.Raw == "" && t.Time.IsZero() }

// After reports whether t is strictly newer than u. Unparsed values never
// compare as newer.
func (t Timestamp) After(u Timestamp) bool {
	if t.Time.IsZero() || u.Time.IsZero() {
		return false
	}
	return t.Time.After(u.Time)
}

func (t Timestamp) String() string { return t.Raw }

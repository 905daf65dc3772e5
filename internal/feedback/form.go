// Package feedback validates and submits user comments on a topic.
package feedback

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/eduverse/eduverse/internal/api"
)

type Phase int

const (
	Idle Phase = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when a submission is attempted while another one from
// the same form is still in flight.
var ErrBusy = errors.New("feedback submission already in progress")

const genericFailure = "Could not send feedback, please try again"

// Submitter is the part of the API a form posts to.
type Submitter interface {
	SubmitFeedback(ctx context.Context, req api.FeedbackRequest) error
}

// Form is one feedback form. It allows at most one request in flight.
// Begin and Finish split a submission for hosts that run the request
// elsewhere; Submit does both.
type Form struct {
	mu      sync.Mutex
	phase   Phase
	comment string
	message string
}

func NewForm() *Form {
	return &Form{}
}

func (f *Form) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

func (f *Form) Busy() bool {
	return f.Phase() == Submitting
}

// Comment is the text the form holds: the last attempt's comment after a
// failure, empty after a success.
func (f *Form) Comment() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comment
}

// Message is the inline text for the last outcome: a validation or failure
// message, or "" after success.
func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Begin validates the input and, when it passes, marks the form busy and
// returns the request to send. Validation failures return the form to Idle
// with an inline message and produce no request.
func (f *Form) Begin(topicID, comment, userID string) (api.FeedbackRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == Submitting {
		return api.FeedbackRequest{}, ErrBusy
	}
	f.phase = Validating
	f.comment = comment

	req, err := validate(topicID, comment, userID)
	if err != nil {
		f.phase = Idle
		f.message = api.UserMessage(err)
		return api.FeedbackRequest{}, err
	}

	f.phase = Submitting
	f.message = ""
	return req, nil
}

// Finish records the outcome of the request started by Begin. Success
// clears the comment; failure keeps it for a retry.
func (f *Form) Finish(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		f.phase = Succeeded
		f.comment = ""
		f.message = ""
		return
	}
	f.phase = Failed
	f.message = failureMessage(err)
}

// Reset returns a settled form to Idle. A busy form is left alone.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != Submitting {
		f.phase = Idle
	}
}

// Submit validates and posts in one call.
func (f *Form) Submit(ctx context.Context, s Submitter, topicID, comment, userID string) error {
	req, err := f.Begin(topicID, comment, userID)
	if err != nil {
		return err
	}
	err = s.SubmitFeedback(ctx, req)
	f.Finish(err)
	return err
}

func validate(topicID, comment, userID string) (api.FeedbackRequest, error) {
	topicID = strings.TrimSpace(topicID)
	if topicID == "" {
		return api.FeedbackRequest{}, &api.ValidationError{Field: "topic_id", Message: "No topic selected"}
	}
	id, err := strconv.Atoi(topicID)
	if err != nil || id < 0 {
		return api.FeedbackRequest{}, &api.ValidationError{Field: "topic_id", Message: "Topic id must be a number"}
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		return api.FeedbackRequest{}, &api.ValidationError{Field: "comment", Message: "Please enter a comment"}
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return api.FeedbackRequest{}, ErrNoIdentity
	}

	return api.FeedbackRequest{UserID: userID, TopicID: id, Comment: comment}, nil
}

func failureMessage(err error) string {
	var se *api.ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return genericFailure
}

package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/host"
)

// ErrNoIdentity means no user identity could be resolved for a submission.
var ErrNoIdentity = &api.ValidationError{Field: "user", Message: "Cannot send feedback without a user name"}

// NameStore persists the display name the user was prompted for.
type NameStore interface {
	DisplayName() (string, error)
	SetDisplayName(name string) error
}

// Prompter asks the user for a display name.
type Prompter func(ctx context.Context) (string, error)

// Resolver finds the identity feedback is sent under: the host-supplied id,
// then a previously entered display name, then a one-time prompt.
type Resolver struct {
	Host   host.Host
	Names  NameStore
	Prompt Prompter
}

// Known returns an identity that needs no prompt, if there is one.
func (r *Resolver) Known() (string, bool) {
	if r.Host != nil {
		if id, ok := r.Host.UserID(); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id), true
		}
	}
	if r.Names == nil {
		return "", false
	}
	name, err := r.Names.DisplayName()
	if err != nil {
		return "", false
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// Resolve returns the identity, prompting and persisting the answer when
// nothing is known yet.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if id, ok := r.Known(); ok {
		return id, nil
	}
	if r.Prompt == nil {
		return "", ErrNoIdentity
	}
	name, err := r.Prompt(ctx)
	if err != nil {
		return "", fmt.Errorf("prompting for name: %w", err)
	}
	return r.Remember(name)
}

// Remember persists a name the user entered and returns it trimmed.
func (r *Resolver) Remember(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoIdentity
	}
	if r.Names != nil {
		if err := r.Names.SetDisplayName(name); err != nil {
			return "", fmt.Errorf("saving display name: %w", err)
		}
	}
	return name, nil
}

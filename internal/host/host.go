// Package host models the environment the client runs in: it is told when
// the client is ready, may be asked for the full viewport, and may supply
// the signed-in user's id.
package host

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Host interface {
	Ready()
	Expand()
	// UserID returns the host-supplied identity, if any.
	UserID() (string, bool)
}

// Terminal is the host for the terminal client. Expanding means taking over
// the whole screen.
type Terminal struct {
	mu       sync.Mutex
	userID   string
	ready    bool
	expanded bool
	logger   *zap.Logger
}

func NewTerminal(userID string, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{userID: strings.TrimSpace(userID), logger: logger}
}

func (t *Terminal) Ready() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return
	}
	t.ready = true
	t.logger.Info("host ready", zap.Bool("identity", t.userID != ""))
}

func (t *Terminal) Expand() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expanded {
		return
	}
	t.expanded = true
	t.logger.Debug("host expanded")
}

func (t *Terminal) UserID() (string, bool) {
	return t.userID, t.userID != ""
}

// Expanded reports whether the client asked for the full screen.
func (t *Terminal) Expanded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expanded
}

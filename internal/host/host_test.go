package host

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTerminalSignalsOnce(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewTerminal("", zap.New(core))

	if h.Expanded() || logs.Len() != 0 {
		t.Fatal("fresh host should not be expanded or have signalled")
	}
	h.Ready()
	h.Ready()
	h.Expand()
	h.Expand()

	if !h.Expanded() {
		t.Error("expected expanded")
	}
	if n := logs.FilterMessage("host ready").Len(); n != 1 {
		t.Errorf("ready logged %d times, want 1", n)
	}
	if n := logs.FilterMessage("host expanded").Len(); n != 1 {
		t.Errorf("expand logged %d times, want 1", n)
	}
}

func TestTerminalUserID(t *testing.T) {
	if _, ok := NewTerminal("  ", nil).UserID(); ok {
		t.Error("blank id should not count as an identity")
	}
	id, ok := NewTerminal(" 4242 ", nil).UserID()
	if !ok || id != "4242" {
		t.Errorf("UserID = %q, %v", id, ok)
	}
}

var _ Host = (*Terminal)(nil)

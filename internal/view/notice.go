package view

import "time"

type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is a transient, dismissible message.
type Notice struct {
	ID      int
	Kind    NoticeKind
	Text    string
	Expires time.Time
}

// Notices is the stack of active notices, oldest first.
type Notices struct {
	next  int
	items []Notice
}

func (n *Notices) Add(kind NoticeKind, text string, ttl time.Duration, now time.Time) Notice {
	n.next++
	notice := Notice{ID: n.next, Kind: kind, Text: text, Expires: now.Add(ttl)}
	n.items = append(n.items, notice)
	return notice
}

// Dismiss removes the notice with the given id.
func (n *Notices) Dismiss(id int) bool {
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

// DismissLatest removes the newest notice, if any.
func (n *Notices) DismissLatest() bool {
	if len(n.items) == 0 {
		return false
	}
	n.items = n.items[:len(n.items)-1]
	return true
}

// Expire drops notices whose deadline has passed and reports how many went.
func (n *Notices) Expire(now time.Time) int {
	kept := n.items[:0]
	for _, item := range n.items {
		if now.Before(item.Expires) {
			kept = append(kept, item)
		}
	}
	removed := len(n.items) - len(kept)
	n.items = kept
	return removed
}

func (n *Notices) Active() []Notice {
	out := make([]Notice, len(n.items))
	copy(out, n.items)
	return out
}

func (n *Notices) Latest() (Notice, bool) {
	if len(n.items) == 0 {
		return Notice{}, false
	}
	return n.items[len(n.items)-1], true
}

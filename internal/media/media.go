// Package media decides how a topic's video link is presented: as an
// embedded player for known video hosts, or as a generic playable file.
package media

import (
	"net/url"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindEmbed
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindEmbed:
		return "embed"
	case KindGeneric:
		return "generic"
	default:
		return "none"
	}
}

// Video is the presentation of a video slot.
type Video struct {
	Kind Kind
	URL  string
	ID   string
}

// EmbedURL is the player URL for an embeddable video, or the raw URL
// otherwise.
func (v Video) EmbedURL() string {
	if v.Kind == KindEmbed {
		return "https://www.youtube.com/embed/" + v.ID
	}
	return v.URL
}

// Classify applies the embedding rule to a raw video link. An empty link
// yields KindNone.
func Classify(raw string) Video {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Video{Kind: KindNone}
	}
	if id, ok := ExtractVideoID(raw); ok {
		return Video{Kind: KindEmbed, URL: raw, ID: id}
	}
	return Video{Kind: KindGeneric, URL: raw}
}

// ExtractVideoID returns the video id of a link shaped either
// host/watch?v=ID or shorthost/ID, with or without a scheme. The id ends
// at '&', '?' or the end of the string.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	// Links pasted without a scheme ("youtu.be/ID") still name a host.
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "/") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.TrimPrefix(u.EscapedPath(), "/")
	case "youtube.com":
		if u.Path != "/watch" {
			return "", false
		}
		id = u.Query().Get("v")
	default:
		return "", false
	}

	if i := strings.IndexAny(id, "&?/"); i >= 0 {
		id = id[:i]
	}
	if !validID(id) {
		return "", false
	}
	return id, true
}

func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

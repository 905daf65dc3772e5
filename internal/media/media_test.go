package media

import "testing"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://youtu.be/abc123?t=5", "abc123", true},
		{"https://youtu.be/abc123", "abc123", true},
		{"https://www.youtube.com/watch?v=abc123&x=1", "abc123", true},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://m.youtube.com/watch?x=1&v=a_b-c", "a_b-c", true},
		{"https://youtu.be/abc123&feature=share", "abc123", true},
		{"https://www.youtube.com/watch", "", false},
		{"https://www.youtube.com/channel/UC123", "", false},
		{"https://youtu.be/", "", false},
		{"https://example.com/clip.mp4", "", false},
		{"https://example.com/watch?v=abc123", "", false},
		{"youtu.be/abc123", "abc123", true},
		{"www.youtube.com/watch?v=abc123", "abc123", true},
		{"example.com/clip.mp4", "", false},
		{"/static/uploads/abc123", "", false},
		{"not a url", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractVideoID(tt.url)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url      string
		kind     Kind
		embedURL string
	}{
		{"https://youtu.be/abc123?t=5", KindEmbed, "https://www.youtube.com/embed/abc123"},
		{"https://example.com/clip.mp4", KindGeneric, "https://example.com/clip.mp4"},
		{"/static/uploads/lesson.mp4", KindGeneric, "/static/uploads/lesson.mp4"},
		{"youtu.be/abc123", KindEmbed, "https://www.youtube.com/embed/abc123"},
		{"   ", KindNone, ""},
		{"", KindNone, ""},
	}
	for _, tt := range tests {
		v := Classify(tt.url)
		if v.Kind != tt.kind {
			t.Errorf("Classify(%q).Kind = %v, want %v", tt.url, v.Kind, tt.kind)
		}
		if got := v.EmbedURL(); got != tt.embedURL {
			t.Errorf("Classify(%q).EmbedURL() = %q, want %q", tt.url, got, tt.embedURL)
		}
	}
}

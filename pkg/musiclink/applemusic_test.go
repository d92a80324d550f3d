package musiclink

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAppleMusicResolver_CanResolve(t *testing.T) {
	resolver := NewAppleMusicResolver()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "Apple Music song URL",
			url:      "https://music.apple.com/us/song/hey-jude/1441164589",
			expected: true,
		},
		{
			name:     "Apple Music album track URL",
			url:      "https://music.apple.com/us/album/abbey-road/1441164426?i=1441164589",
			expected: true,
		},
		{
			name:     "Legacy iTunes URL",
			url:      "https://itunes.apple.com/us/album/abbey-road/1441164426?i=1441164589",
			expected: true,
		},
		{
			name:     "Spotify URL",
			url:      "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: false,
		},
		{
			name:     "Lookalike host",
			url:      "https://music.apple.com.evil.example/us/song/x/1",
			expected: false,
		},
		{
			name:     "Invalid URL",
			url:      "://not-a-url",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.CanResolve(tt.url)
			if result != tt.expected {
				t.Errorf("CanResolve(%q) = %v, want %v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestExtractAppleTrackID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{
			name: "Album track with i parameter",
			url:  "https://music.apple.com/us/album/abbey-road/1441164426?i=1441164589",
			want: "1441164589",
		},
		{
			name: "Direct song link",
			url:  "https://music.apple.com/us/song/hey-jude/1441164589",
			want: "1441164589",
		},
		{
			name:    "Playlist link rejected",
			url:     "https://music.apple.com/us/playlist/chill/pl.abc123",
			wantErr: ErrNotATrack,
		},
		{
			name:    "Album without track parameter rejected",
			url:     "https://music.apple.com/us/album/abbey-road/1441164426",
			wantErr: ErrNotATrack,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractAppleTrackID(tt.url)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("extractAppleTrackID() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractAppleTrackID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("extractAppleTrackID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppleMusicResolver_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "1441164589" {
			t.Errorf("lookup id = %q, want %q", got, "1441164589")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"resultCount": 1,
			"results": [{"trackName": "Hey Jude", "artistName": "The Beatles"}]
		}`))
	}))
	defer server.Close()

	resolver := NewAppleMusicResolver()
	resolver.lookupURL = server.URL

	info, err := resolver.Resolve(context.Background(), "https://music.apple.com/us/song/hey-jude/1441164589")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if info.Title != "Hey Jude" {
		t.Errorf("Title = %q, want %q", info.Title, "Hey Jude")
	}
	if info.Artist != "The Beatles" {
		t.Errorf("Artist = %q, want %q", info.Artist, "The Beatles")
	}
}

func TestAppleMusicResolver_ResolveEmptyLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCount": 0, "results": []}`))
	}))
	defer server.Close()

	resolver := NewAppleMusicResolver()
	resolver.lookupURL = server.URL

	if _, err := resolver.Resolve(context.Background(), "https://music.apple.com/us/song/gone/999"); err == nil {
		t.Fatal("Resolve() error = nil, want lookup failure")
	}
}

func TestAppleMusicResolver_ResolveRejectsPlaylist(t *testing.T) {
	resolver := NewAppleMusicResolver()

	_, err := resolver.Resolve(context.Background(), "https://music.apple.com/us/playlist/chill/pl.abc123")
	if !errors.Is(err, ErrNotATrack) {
		t.Fatalf("Resolve() error = %v, want ErrNotATrack", err)
	}
}

func TestAppleMusicResolver_ResolveNonAppleURL(t *testing.T) {
	resolver := NewAppleMusicResolver()

	if _, err := resolver.Resolve(context.Background(), "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"); err == nil {
		t.Fatal("Resolve() error = nil, want rejection")
	}
}

package core

import (
	"time"
)

const (
	// DefaultWatchIntervalSecs is the default delay between sync runs in watch mode
	DefaultWatchIntervalSecs = 900
	// DefaultChatFilePattern matches the chat text member inside the exported archive
	DefaultChatFilePattern = `(?i).*WhatsApp Chat.*\.txt$`
	// DefaultSummaryLogPath is the append-only file receiving one summary line per run
	DefaultSummaryLogPath = "./vibesync_log.txt"
)

type Config struct {
	Drive   DriveConfig
	Spotify SpotifyConfig
	Sync    SyncConfig
	Server  ServerConfig
	Log     LogConfig
}

type DriveConfig struct {
	// CredentialsJSON holds service account credentials content; CredentialsPath
	// points at a file with the same. Content wins when both are set.
	CredentialsJSON string
	CredentialsPath string
	FolderID        string
	ArchiveName     string
	ChatFilePattern string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	PlaylistID   string
	TokenPath    string
	// TokenContent carries a serialized OAuth token for stateless environments;
	// when set it is written to TokenPath before authentication.
	TokenContent string
}

type SyncConfig struct {
	// Destructive enables full reconciliation including removals. When false
	// the run only appends chat tracks missing from the playlist.
	Destructive       bool
	WatchIntervalSecs int
	SummaryLogPath    string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

func DefaultConfig() *Config {
	return &Config{
		Drive: DriveConfig{
			ArchiveName:     "WhatsApp Chat",
			ChatFilePattern: DefaultChatFilePattern,
		},
		Spotify: SpotifyConfig{
			RedirectURL: "http://localhost:8080/callback",
			TokenPath:   "./spotify_token.json",
		},
		Sync: SyncConfig{
			Destructive:       false,
			WatchIntervalSecs: DefaultWatchIntervalSecs,
			SummaryLogPath:    DefaultSummaryLogPath,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

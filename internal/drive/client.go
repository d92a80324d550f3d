// Package drive retrieves the exported WhatsApp chat archive from Google Drive.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"vibesync/internal/core"
)

// maxArchiveBytes bounds how much of the archive download is read into memory.
const maxArchiveBytes = 256 << 20

// Client is the ArchiveSource backed by a Drive folder: it locates the newest
// archive with the configured name, downloads it and extracts the chat text.
type Client struct {
	svc         *drive.Service
	config      *core.DriveConfig
	chatPattern *regexp.Regexp
	logger      *zap.Logger
}

// NewClient builds a Drive client from service account credentials. Credential
// content from config wins over a credentials file path.
func NewClient(ctx context.Context, config *core.DriveConfig, logger *zap.Logger) (*Client, error) {
	credsJSON := []byte(config.CredentialsJSON)
	if len(credsJSON) == 0 && config.CredentialsPath != "" {
		data, err := os.ReadFile(config.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read Drive credentials file: %w", err)
		}
		credsJSON = data
	}
	if len(credsJSON) == 0 {
		return nil, fmt.Errorf("no Drive credentials configured")
	}

	svc, err := drive.NewService(ctx,
		option.WithCredentialsJSON(credsJSON),
		option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	pattern := config.ChatFilePattern
	if pattern == "" {
		pattern = core.DefaultChatFilePattern
	}
	chatPattern, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid chat file pattern %q: %w", pattern, err)
	}

	return &Client{
		svc:         svc,
		config:      config,
		chatPattern: chatPattern,
		logger:      logger,
	}, nil
}

// FetchChatText locates, downloads and unpacks the chat archive, returning
// the raw chat text. Missing archives map to core.ErrArchiveNotFound and
// archives without a matching chat member to core.ErrChatNotInArchive so the
// caller can report the precise blocking reason.
func (c *Client) FetchChatText(ctx context.Context) (string, error) {
	file, err := c.findArchive(ctx)
	if err != nil {
		return "", err
	}

	c.logger.Info("Found chat archive",
		zap.String("fileID", file.Id),
		zap.String("name", file.Name),
		zap.String("modified", file.ModifiedTime))

	archive, err := c.download(ctx, file.Id)
	if err != nil {
		return "", fmt.Errorf("failed to download archive %q: %w", file.Name, err)
	}

	chatText, err := ExtractChatText(archive, c.chatPattern)
	if err != nil {
		return "", fmt.Errorf("failed to unpack archive %q: %w", file.Name, err)
	}

	return chatText, nil
}

// findArchive looks up the newest non-trashed file with the configured name
// inside the input folder.
func (c *Client) findArchive(ctx context.Context) (*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false",
		c.config.FolderID, c.config.ArchiveName)

	list, err := c.svc.Files.List().
		Q(query).
		PageSize(1).
		OrderBy("modifiedTime desc").
		Fields("files(id, name, modifiedTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("archive lookup failed: %w", err)
	}

	if len(list.Files) == 0 {
		return nil, fmt.Errorf("%w: no file named %q in folder %s",
			core.ErrArchiveNotFound, c.config.ArchiveName, c.config.FolderID)
	}

	return list.Files[0], nil
}

func (c *Client) download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive body: %w", err)
	}
	return data, nil
}

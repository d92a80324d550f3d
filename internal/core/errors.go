package core

import "errors"

var (
	// ErrArchiveNotFound is returned when the chat archive is absent from the Drive folder.
	ErrArchiveNotFound = errors.New("chat archive not found")

	// ErrChatNotInArchive is returned when the archive contains no matching chat text file.
	ErrChatNotInArchive = errors.New("no chat text file in archive")
)

package drive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"

	"vibesync/internal/core"
)

// ExtractChatText opens the downloaded ZIP archive and returns the content of
// the first member whose name matches chatPattern. WhatsApp exports put the
// chat transcript in a single .txt next to any shared media.
func ExtractChatText(archive []byte, chatPattern *regexp.Regexp) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", fmt.Errorf("not a readable ZIP archive: %w", err)
	}

	for _, member := range reader.File {
		if !chatPattern.MatchString(member.Name) {
			continue
		}

		f, err := member.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open archive member %q: %w", member.Name, err)
		}

		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read archive member %q: %w", member.Name, err)
		}

		return string(data), nil
	}

	return "", core.ErrChatNotInArchive
}

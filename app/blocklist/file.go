package blocklist

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	e "nuclight.org/relay-tg-bot/pkg/entities"
)

// FileStore keeps blocked identities in a plain text file, one decimal id per line.
type FileStore struct {
	Path string
}

// Load reads the file. A missing file is an empty set; blank lines and lines
// that are not decimal numbers are skipped.
func (s *FileStore) Load(_ context.Context) ([]e.Identity, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	var ids []e.Identity
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !isDigits(line) {
			continue
		}

		id, err := e.ParseIdentity(line)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.Path, err)
	}

	return ids, nil
}

// Save writes ids to a temporary file next to the target and renames it over
// the target, so a crash leaves either the old or the new file in place.
func (s *FileStore) Save(_ context.Context, ids []e.Identity) error {
	var buf bytes.Buffer
	for _, id := range ids {
		buf.WriteString(id.String())
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.Path, err)
	}

	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

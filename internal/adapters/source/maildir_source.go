package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// MaildirSource reads .eml files from a directory tree
type MaildirSource struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// NewMaildirSource creates a source rooted at dir
func NewMaildirSource(dir string, logger *zap.Logger) *MaildirSource {
	return &MaildirSource{
		root:   dir,
		logger: logger,
		now:    time.Now,
	}
}

type emlFile struct {
	path    string
	modTime time.Time
}

// ListRecent returns messages modified within the window, newest first. The message
// Date header wins over the file time when present.
func (s *MaildirSource) ListRecent(ctx context.Context, windowDays int, limit int) ([]*core.RawEmail, error) {
	cutoff := s.now().AddDate(0, 0, -windowDays)

	var files []emlFile
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".eml") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			return nil
		}
		files = append(files, emlFile{path: path, modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	emails := make([]*core.RawEmail, 0, min(len(files), limit))
	for _, f := range files {
		if len(emails) >= limit {
			break
		}
		email, err := s.readFile(f)
		if err != nil {
			s.logger.Warn("Failed to process message", zap.String("path", f.path), zap.Error(err))
			continue
		}
		if email != nil {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

func (s *MaildirSource) readFile(f emlFile) (*core.RawEmail, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	id := strings.TrimSuffix(filepath.Base(f.path), filepath.Ext(f.path))
	email, ok, err := ParseMessage(id, fh)
	if err != nil || !ok {
		return nil, err
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = f.modTime
	}
	return email, nil
}

// Ping checks that the directory is readable
func (s *MaildirSource) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("mail directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mail directory unavailable: %s is not a directory", s.root)
	}
	return nil
}

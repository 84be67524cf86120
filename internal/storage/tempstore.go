// Package storage manages the scratch directory holding annotated
// images between render and send.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tempFilePrefix = "meme_"
	sweepInterval  = 24 * time.Hour
)

// TempStore writes annotated output to uniquely named files and sweeps
// out anything that outlives the retention window.
type TempStore struct {
	dir       string
	retention time.Duration
	logger    *zap.Logger
}

func NewTempStore(dir string, cleanupDays int, logger *zap.Logger) (*TempStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &TempStore{
		dir:       dir,
		retention: time.Duration(cleanupDays) * 24 * time.Hour,
		logger:    logger,
	}, nil
}

// Write persists data under a timestamp-plus-uuid name so concurrent
// requests landing in the same millisecond cannot collide.
func (s *TempStore) Write(data []byte, ext string) (string, error) {
	name := fmt.Sprintf("%s%d_%s.%s", tempFilePrefix, time.Now().UnixMilli(), uuid.New().String()[:8], ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return path, nil
}

// Remove deletes a temp file after send. Failure is non-fatal; the
// sweep picks the file up later.
func (s *TempStore) Remove(path string) {
	if err := os.Remove(path); err != nil {
		s.logger.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
	}
}

// Sweep deletes every regular file in the scratch directory older than
// the retention window. The directory is owned outright, so strays left
// by crashes or earlier versions expire too. Per-file failures are
// logged and skipped.
func (s *TempStore) Sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("failed to read temp dir", zap.String("dir", s.dir), zap.Error(err))
		return
	}

	now := time.Now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.retention {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove expired file", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("swept expired temp files", zap.Int("removed", removed))
	}
}

// StartSweeper runs one synchronous sweep, then sweeps every 24 hours
// until ctx is cancelled.
func (s *TempStore) StartSweeper(ctx context.Context) {
	s.Sweep()
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

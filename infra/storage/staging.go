package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

const keepFile = ".gitkeep"

// Staging is a local directory holding uploaded ledgers and generated reports
// for the lifetime of a job.
// NOTES: this is the simulation version of object storage, later we can implement object storage uploader in production.
type Staging struct {
	Dir string
	now func() time.Time
}

func NewStaging(dir string) (*Staging, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", dir, err)
	}
	return &Staging{Dir: dir, now: time.Now}, nil
}

// Save copies src into the staging dir under a unique name that keeps the
// original extension.
func (s *Staging) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	destPath := filepath.Join(s.Dir, fmt.Sprintf("%d_%s%s", s.now().UnixNano(), uuid.NewString()[:8], ext))

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}
	return destPath, nil
}

// ReportPath returns where the report of jobID is written. Distinct ids
// always map to distinct files.
func (s *Staging) ReportPath(jobID string) string {
	sum := sha256.Sum256([]byte(jobID))
	return filepath.Join(s.Dir, fmt.Sprintf("report_%s.xlsx", hex.EncodeToString(sum[:])))
}

// Exists reports whether path is a regular file.
func (s *Staging) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the given files, ignoring the ones already gone.
func (s *Staging) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warnf("[Staging] Failed to remove %s: %v", p, err)
		}
	}
}

// OpenEphemeral opens path for reading. The file is unlinked when the
// returned handle is closed.
func (s *Staging) OpenEphemeral(path string) (*EphemeralFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return &EphemeralFile{File: f}, nil
}

// Sweep deletes regular files older than maxAge and returns how many it
// removed.
func (s *Staging) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list staging dir: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == keepFile {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.Dir, entry.Name())
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warnf("[Staging] Failed to sweep %s: %v", path, err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// EphemeralFile deletes itself on Close.
type EphemeralFile struct {
	*os.File
}

func (f *EphemeralFile) Close() error {
	err := f.File.Close()
	if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

// Release closes the handle and leaves the file in place.
func (f *EphemeralFile) Release() error {
	return f.File.Close()
}

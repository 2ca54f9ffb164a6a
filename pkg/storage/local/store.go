// Package local stores media blobs on a durable filesystem root.
package local

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/centrio/centrio-backend/pkg/uniquekey"
)

const (
	tmpSuffix       = ".tmp"
	maxExtLen       = 10
	nameAllocTries  = 8
	storedNameStamp = "20060102T150405"
)

var (
	// ErrTooLarge is returned when the written content exceeds the configured cap.
	ErrTooLarge = errors.New("blob exceeds maximum size")
	// ErrOutsideRoot is returned for paths that do not resolve under the store root.
	ErrOutsideRoot = errors.New("path outside storage root")
)

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the store.
type Options struct {
	Root     string
	MaxBytes int64
}

// Store writes and removes blobs under a single root directory.
type Store struct {
	root     string
	maxBytes int64
	now      func() time.Time
}

// StoredObject describes a freshly written blob. StoragePath is relative to
// the store root so catalog rows survive a root move.
type StoredObject struct {
	StoredName  string
	StoragePath string
	Size        int64
}

// BlobInfo is reported for every blob visited by Walk. StoragePath has the
// same root-relative form as StoredObject.StoragePath.
type BlobInfo struct {
	StoragePath string
	Size        int64
	ModTime     time.Time
}

// New creates the root directory when needed and returns a store bound to it.
func New(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("storage root is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &Store{
		root:     root,
		maxBytes: opts.MaxBytes,
		now:      time.Now,
	}, nil
}

// Root returns the absolute storage root.
func (s *Store) Root() string {
	return s.root
}

// Store streams r to a new, uniquely named file.
// Writes go to a temp file that is fsynced and then hard-linked to its final
// name, so an existing blob is never overwritten.
func (s *Store) Store(ctx context.Context, r io.Reader, suggestedName string) (*StoredObject, error) {
	if r == nil {
		return nil, errors.New("content reader required")
	}
	ext := safeExt(suggestedName)
	name, err := uniquekey.Allocate(ctx, func(int) string {
		return s.newStoredName(ext)
	}, func(_ context.Context, candidate string) (bool, error) {
		return s.exists(filepath.Join(s.root, candidate))
	}, nameAllocTries)
	if err != nil {
		return nil, fmt.Errorf("allocate stored name: %w", err)
	}

	fullPath := filepath.Join(s.root, name)
	tmpPath := fullPath + tmpSuffix

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	size, err := io.Copy(f, src)
	if err == nil && s.maxBytes > 0 && size > s.maxBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("write blob: %w", err)
	}

	if err := os.Link(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("publish blob: %w", err)
	}
	_ = os.Remove(tmpPath)

	return &StoredObject{
		StoredName:  name,
		StoragePath: name,
		Size:        size,
	}, nil
}

// Remove deletes the blob at storagePath. A missing file is not an error:
// removed is false and err is nil.
func (s *Store) Remove(_ context.Context, storagePath string) (bool, error) {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return false, err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove blob %s: %w", storagePath, err)
	}
	return true, nil
}

// Exists reports whether a blob is present at storagePath.
func (s *Store) Exists(storagePath string) bool {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return false
	}
	ok, err := s.exists(fullPath)
	return err == nil && ok
}

// Open returns a reader for the blob at storagePath.
func (s *Store) Open(storagePath string) (*os.File, error) {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// Walk visits every published blob directly under the root. In-flight temp
// files and dot files are skipped.
func (s *Store) Walk(ctx context.Context, fn func(BlobInfo) error) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("read storage root: %w", err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || strings.HasSuffix(entry.Name(), tmpSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if err := fn(BlobInfo{
			StoragePath: entry.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Ping verifies the root is still a writable directory.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root)
	}
	marker, err := os.CreateTemp(s.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	name := marker.Name()
	_ = marker.Close()
	return os.Remove(name)
}

// FullPath resolves a root-relative storage path to its absolute location.
func (s *Store) FullPath(storagePath string) (string, error) {
	return s.resolve(storagePath)
}

func (s *Store) resolve(storagePath string) (string, error) {
	if strings.TrimSpace(storagePath) == "" {
		return "", ErrOutsideRoot
	}
	fullPath := storagePath
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(s.root, fullPath)
	}
	fullPath = filepath.Clean(fullPath)
	if !strings.HasPrefix(fullPath, s.root+string(os.PathSeparator)) {
		return "", ErrOutsideRoot
	}
	return fullPath, nil
}

func (s *Store) exists(fullPath string) (bool, error) {
	_, err := os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// newStoredName formats <utc stamp>-<random hex><ext>.
func (s *Store) newStoredName(ext string) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%s%s", s.now().UTC().Format(storedNameStamp), hex.EncodeToString(id[:6]), ext)
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if ext == "" || ext == "." {
		return ""
	}
	var b strings.Builder
	b.WriteByte('.')
	for _, r := range ext[1:] {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) <= 1 {
		return ""
	}
	if len(clean) > maxExtLen+1 {
		clean = clean[:maxExtLen+1]
	}
	return clean
}

package curation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists the single in-flight review record. Load reports
// (record, found, error); Delete on a missing record is a no-op.
type Store interface {
	Load(ctx context.Context) (Request, bool, error)
	Save(ctx context.Context, req Request) error
	Delete(ctx context.Context) error
}

// ThumbnailStore persists the custom-thumbnail control record.
type ThumbnailStore interface {
	LoadThumbnail(ctx context.Context) (ThumbnailRecord, bool, error)
	SaveThumbnail(ctx context.Context, rec ThumbnailRecord) error
	DeleteThumbnail(ctx context.Context) error
}

// FileStore keeps both records as JSON files under one state dir.
type FileStore struct {
	dir           string
	requestFile   string
	thumbnailFile string

	mu sync.Mutex
}

func NewFileStore(dir, requestFile, thumbnailFile string) *FileStore {
	if strings.TrimSpace(requestFile) == "" {
		requestFile = "curacao_pendente.json"
	}
	if strings.TrimSpace(thumbnailFile) == "" {
		thumbnailFile = "thumbnail_pendente.json"
	}
	return &FileStore{
		dir:           strings.TrimSpace(dir),
		requestFile:   requestFile,
		thumbnailFile: thumbnailFile,
	}
}

func (s *FileStore) Load(ctx context.Context) (Request, bool, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return Request{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var req Request
	ok, err := readJSONFile(s.requestPath(), &req)
	if err != nil {
		return Request{}, false, err
	}
	if !ok {
		return Request{}, false, nil
	}
	if req.Decisions == nil {
		req.Decisions = make(map[int]Decision)
	}
	return req, true, nil
}

func (s *FileStore) Save(ctx context.Context, req Request) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFileAtomic(s.requestPath(), req, 0o600)
}

func (s *FileStore) Delete(ctx context.Context) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfExists(s.requestPath())
}

func (s *FileStore) LoadThumbnail(ctx context.Context) (ThumbnailRecord, bool, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return ThumbnailRecord{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec ThumbnailRecord
	ok, err := readJSONFile(s.thumbnailPath(), &rec)
	if err != nil {
		return ThumbnailRecord{}, false, err
	}
	if !ok {
		return ThumbnailRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *FileStore) SaveThumbnail(ctx context.Context, rec ThumbnailRecord) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONFileAtomic(s.thumbnailPath(), rec, 0o600)
}

func (s *FileStore) DeleteThumbnail(ctx context.Context) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfExists(s.thumbnailPath())
}

func (s *FileStore) requestPath() string {
	return filepath.Join(s.rootPath(), s.requestFile)
}

func (s *FileStore) thumbnailPath() string {
	return filepath.Join(s.rootPath(), s.thumbnailFile)
}

func (s *FileStore) rootPath() string {
	dir := strings.TrimSpace(s.dir)
	if dir == "" {
		return "."
	}
	return filepath.Clean(dir)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func readJSONFile(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func writeJSONFileAtomic(path string, v any, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create parent dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json for %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}

func ensureNotCanceled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

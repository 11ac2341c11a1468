package highscore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
)

// FileStore keeps every key in one JSON object on disk. Missing files, missing
// keys and non-numeric values all read as zero.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Get(_ context.Context, mode engine.Mode) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.read()
	if err != nil {
		return 0, err
	}
	return numeric(all[Key(mode)]), nil
}

func (s *FileStore) Record(_ context.Context, mode engine.Mode, score float64) (float64, bool, error) {
	if score < 0 {
		return 0, false, ErrNegativeScore
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return 0, false, err
	}
	best, improved := ratchet(numeric(all[Key(mode)]), score)
	if !improved {
		return best, false, nil
	}
	all[Key(mode)] = best
	if err := s.write(all); err != nil {
		return 0, false, err
	}
	return best, true, nil
}

func (s *FileStore) Reset(_ context.Context, mode engine.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[Key(mode)] = 0.0
	return s.write(all)
}

func (s *FileStore) read() (map[string]any, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read high scores: %w", err)
	}

	all := map[string]any{}
	if len(bytes.TrimSpace(b)) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(b, &all); err != nil {
		// A corrupt file is treated like an empty one; the next write repairs it.
		return map[string]any{}, nil
	}
	return all, nil
}

func (s *FileStore) write(all map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		return err
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func numeric(v any) float64 {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0
	}
	return f
}

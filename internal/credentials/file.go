package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore 把槽位保存在一个 JSON 文件中（键为槽位名），其余槽位原样保留
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore 创建文件凭据存储。文件在第一次 Save 时创建
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path 返回凭据文件路径
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if err != nil {
		return err
	}
	slots[SlotAPIKey] = key
	return s.write(slots)
}

func (s *FileStore) Load(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if err != nil {
		return "", false, err
	}
	key, ok := slots[SlotAPIKey]
	return key, ok, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := slots[SlotAPIKey]; !ok {
		return nil
	}
	delete(slots, SlotAPIKey)
	return s.write(slots)
}

// read 读取全部槽位，文件不存在时返回空 map
func (s *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	slots := map[string]string{}
	if len(raw) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	return slots, nil
}

// write 先写临时文件再 rename，避免写到一半的文件
func (s *FileStore) write(slots map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}

	raw, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

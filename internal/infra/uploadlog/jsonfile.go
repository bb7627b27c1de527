// Package uploadlog persists the dedup index as a flat JSON file. Appends
// rewrite the whole file, which is why every read-modify-write runs under
// the log's single writer lock.
package uploadlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hasbegun/argus/internal/domain/entity"
)

type JSONFile struct {
	path string
	mu   sync.Mutex
}

// NewJSONFile opens (creating if needed) the log at path.
func NewJSONFile(path string) (*JSONFile, error) {
	l := &JSONFile{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.write([]entity.UploadRecord{}); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *JSONFile) FindByHash(ctx context.Context, hash string) (entity.UploadRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return entity.UploadRecord{}, false, err
	}
	for _, r := range records {
		if r.ContentHash == hash {
			return r, true, nil
		}
	}
	return entity.UploadRecord{}, false, nil
}

func (l *JSONFile) Append(ctx context.Context, record entity.UploadRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.ContentHash == record.ContentHash {
			return &entity.StorageError{
				Op:  "append upload log",
				Err: fmt.Errorf("hash %s already recorded", record.ContentHash),
			}
		}
	}
	return l.write(append(records, record))
}

func (l *JSONFile) All(ctx context.Context) ([]entity.UploadRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *JSONFile) read() ([]entity.UploadRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &entity.StorageError{Op: "read upload log", Err: err}
	}
	var records []entity.UploadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &entity.StorageError{Op: "decode upload log", Err: err}
	}
	return records, nil
}

// write replaces the log atomically: encode to a sibling temp file, then
// rename over the old one.
func (l *JSONFile) write(records []entity.UploadRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &entity.StorageError{Op: "encode upload log", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".upload_log_*")
	if err != nil {
		return &entity.StorageError{Op: "write upload log", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &entity.StorageError{Op: "write upload log", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &entity.StorageError{Op: "write upload log", Err: err}
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return &entity.StorageError{Op: "write upload log", Err: err}
	}
	return nil
}

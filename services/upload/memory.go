package uploadsvc

import (
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/chendurkumaran/eduresource/core"
)

type memoryStorage struct {
	mutex sync.RWMutex
	files map[string][]byte
}

var _ core.FileStorage = (*memoryStorage)(nil)

// NewMemoryStorage builds an in-process FileStorage for tests and local
// development.
func NewMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string][]byte)}
}

func (st *memoryStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.files[key] = data
	return "mem://" + key, nil
}

func (st *memoryStorage) Delete(ctx context.Context, key string) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	delete(st.files, key)
	return nil
}

// Contents returns the stored bytes for a key; tests use it to assert cleanup.
func (st *memoryStorage) Contents(key string) ([]byte, bool) {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	data, ok := st.files[key]
	return data, ok
}

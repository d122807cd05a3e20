package storerepofake

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jrsteele09/go-intercom-bridge/store"
)

var _ store.Repo = (*FakeStore)(nil)

type FakeStore struct {
	values map[string][]byte
	lock   sync.RWMutex

	// SetErr, when non-nil, is returned by every Set.
	SetErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string][]byte),
	}
}

func (fs *FakeStore) Get(_ context.Context, key string, out any) (bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	raw, ok := fs.values[key]
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (fs *FakeStore) Set(_ context.Context, key string, value any) error {
	if fs.SetErr != nil {
		return fs.SetErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values[key] = raw
	return nil
}

func (fs *FakeStore) Delete(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	delete(fs.values, key)
	return nil
}

func (fs *FakeStore) Keys(_ context.Context) ([]string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	keys := make([]string, 0, len(fs.values))
	for k := range fs.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

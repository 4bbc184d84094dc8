package blob

import (
	"context"
	"strings"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps all blobs in process memory. Intended for local
// development and tests; contents are lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	containers map[string]map[string]memoryObject
	publicBase string
}

// NewMemoryStore creates an empty in-memory store. publicBase is the base
// URL of the in-process blob endpoint used to build locators.
func NewMemoryStore(publicBase string) *MemoryStore {
	return &MemoryStore{
		containers: make(map[string]map[string]memoryObject),
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (s *MemoryStore) EnsureContainer(_ context.Context, container string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[container]; !ok {
		s.containers[container] = make(map[string]memoryObject)
	}
	return nil
}

func (s *MemoryStore) Put(_ context.Context, container, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[container]
	if !ok {
		c = make(map[string]memoryObject)
		s.containers[container] = c
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c[key] = memoryObject{data: buf, contentType: contentType}
	return s.locator(container, key), nil
}

func (s *MemoryStore) Resolve(_ context.Context, container, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.containers[container][key]; !ok {
		return "", ErrNotFound
	}
	return s.locator(container, key), nil
}

func (s *MemoryStore) Delete(_ context.Context, container, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[container][key]; !ok {
		return false, nil
	}
	delete(s.containers[container], key)
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, container, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.containers[container][key]
	if !ok {
		return nil, "", ErrNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, obj.contentType, nil
}

// locator points at the in-process blob-serving endpoint.
func (s *MemoryStore) locator(container, key string) string {
	return s.publicBase + "/api/v1/images/blob/" + container + "/" + key
}

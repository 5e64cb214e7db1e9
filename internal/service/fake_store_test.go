package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"resize4me/internal/models"
)

type storedObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu       sync.Mutex
	buckets  map[string]map[string]storedObject
	failPut  map[string]bool // bucket/key
	probeErr map[string]error
	probes   []string
	puts     []string // bucket/key in write order
	gets     int
}

func newMemStore(buckets ...string) *memStore {
	s := &memStore{
		buckets:  make(map[string]map[string]storedObject),
		failPut:  make(map[string]bool),
		probeErr: make(map[string]error),
	}
	for _, b := range buckets {
		s.buckets[b] = make(map[string]storedObject)
	}
	return s
}

func (s *memStore) seed(bucket, key string, body []byte, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket][key] = storedObject{body: body, metadata: metadata}
}

func (s *memStore) object(bucket, key string) (storedObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.buckets[bucket][key]
	return o, ok
}

func (s *memStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes = append(s.probes, bucket)
	if err := s.probeErr[bucket]; err != nil {
		return false, err
	}
	_, ok := s.buckets[bucket]
	return ok, nil
}

func (s *memStore) Stat(_ context.Context, bucket, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("no such key %s/%s", bucket, key)
	}
	return o.metadata, nil
}

func (s *memStore) Get(_ context.Context, bucket, key string) (*models.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	o, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("no such key %s/%s", bucket, key)
	}
	return &models.Object{Body: o.body, ContentType: o.contentType, Metadata: o.metadata}, nil
}

func (s *memStore) Put(_ context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut[bucket+"/"+key] {
		return errors.New("access denied")
	}
	b, ok := s.buckets[bucket]
	if !ok {
		return errors.New("no such bucket")
	}
	b[key] = storedObject{body: body, contentType: contentType, metadata: metadata}
	s.puts = append(s.puts, bucket+"/"+key)
	return nil
}

type memLedger struct {
	variants []models.Variant
	err      error
}

func (l *memLedger) SaveVariant(_ context.Context, v *models.Variant) error {
	if l.err != nil {
		return l.err
	}
	l.variants = append(l.variants, *v)
	return nil
}

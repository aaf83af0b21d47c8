// Package memory implements an in process LRU storage with expiring
// entries.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/haveachin/barebones/pkg/storage"
	"github.com/robfig/cron/v3"
)

const (
	DefaultSize        = 1000
	DefaultTTL         = time.Hour
	DefaultJanitorSpec = "@every 1m"
)

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// Storage is a size bounded LRU. Expired entries are dropped lazily on Get
// and in bulk by the janitor.
type Storage struct {
	mu    sync.Mutex
	size  int
	ttl   time.Duration
	items map[string]*list.Element
	lru   *list.List
	now   func() time.Time

	janitor *cron.Cron
}

func New(size int, ttl time.Duration) *Storage {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Storage{
		size:  size,
		ttl:   ttl,
		items: make(map[string]*list.Element),
		lru:   list.New(),
		now:   time.Now,
	}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	e := elem.Value.(*entry)
	if !s.now().Before(e.expiresAt) {
		s.remove(elem)
		return nil, storage.ErrNotFound
	}

	s.lru.MoveToFront(elem)
	return append([]byte(nil), e.value...), nil
}

func (s *Storage) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value = append([]byte(nil), value...)
	expiresAt := s.now().Add(s.ttl)

	if elem, ok := s.items[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		s.lru.MoveToFront(elem)
		return nil
	}

	s.items[key] = s.lru.PushFront(&entry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})

	for s.lru.Len() > s.size {
		s.remove(s.lru.Back())
	}
	return nil
}

// PurgeExpired drops every expired entry and returns how many were removed.
func (s *Storage) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*entry).expiresAt) {
			s.remove(elem)
			n++
		}
		elem = prev
	}
	return n
}

func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// StartJanitor runs PurgeExpired on the given cron schedule until Close is
// called. An empty spec uses DefaultJanitorSpec.
func (s *Storage) StartJanitor(spec string) error {
	if spec == "" {
		spec = DefaultJanitorSpec
	}

	c := cron.New()
	if _, err := c.AddJob(spec, cron.FuncJob(func() {
		s.PurgeExpired()
	})); err != nil {
		return err
	}

	s.mu.Lock()
	if s.janitor != nil {
		s.janitor.Stop()
	}
	s.janitor = c
	s.mu.Unlock()

	c.Start()
	return nil
}

// Close stops the janitor and drops all entries.
func (s *Storage) Close() error {
	s.mu.Lock()
	janitor := s.janitor
	s.janitor = nil
	s.items = make(map[string]*list.Element)
	s.lru = list.New()
	s.mu.Unlock()

	if janitor != nil {
		<-janitor.Stop().Done()
	}
	return nil
}

func (s *Storage) remove(elem *list.Element) {
	s.lru.Remove(elem)
	delete(s.items, elem.Value.(*entry).key)
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/readmeter/readmeter/internal/article"
)

// Store is a thread-safe in-memory registry of analyzed articles with
// TTL eviction.
type Store struct {
	mu       sync.Mutex
	articles map[string]*article.Article
	ttl      time.Duration
}

func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		articles: make(map[string]*article.Article),
		ttl:      ttl,
	}
}

// Put stores or replaces an article by ID.
func (s *Store) Put(a *article.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.ID] = a
}

// Get returns an article by ID, or nil if absent.
func (s *Store) Get(id string) *article.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.articles[id]
}

// Delete removes an article. Returns true if it was present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.articles[id]
	delete(s.articles, id)
	return ok
}

// List returns up to limit articles, most recently analyzed first.
// limit <= 0 returns all.
func (s *Store) List(limit int) []*article.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*article.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of stored articles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

// Cleanup removes articles older than the TTL.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, a := range s.articles {
		if now.Sub(a.AnalyzedAt) > s.ttl {
			delete(s.articles, id)
		}
	}
}

// StartCleanup runs Cleanup on a ticker until ctx is cancelled.
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

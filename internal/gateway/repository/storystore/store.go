// Package storystore persists generated story DAGs behind one interface
// with two backends: a JSON file for local development and Postgres for
// deployments, selected by DSN. Reads of recent stories are
// served from an LRU cache in front of the database.
package storystore

import (
	"database/sql"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Story

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, Story]
}

// New creates a file-backed store at path.
func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Story),
	}
}

// NewPostgres creates a database-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Story](256)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:    db,
		cache: cache,
	}, nil
}

// NewFromOptions picks the database backend when dsn is set and falls back
// to the file backend otherwise (or when the database is unreachable).
func NewFromOptions(dsn, path string) *Store {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

// Put stores or replaces a story.
func (s *Store) Put(story Story) error {
	if s == nil {
		return nil
	}
	story = normalizeStory(story)
	if story.StoryID == "" {
		return nil
	}
	if s.db != nil {
		if err := s.putDB(story); err != nil {
			return err
		}
		s.cache.Add(story.StoryID, story)
		return nil
	}
	s.putFile(story)
	return nil
}

// Get retrieves a story by id.
func (s *Store) Get(storyID string) (Story, bool) {
	if s == nil {
		return Story{}, false
	}
	if s.db != nil {
		if cached, ok := s.cache.Get(strings.TrimSpace(storyID)); ok {
			return cached, true
		}
		story, ok := s.getDB(storyID)
		if ok {
			s.cache.Add(story.StoryID, story)
		}
		return story, ok
	}
	return s.getFile(storyID)
}

// ListRecent returns up to limit stories, newest first.
func (s *Store) ListRecent(limit int) []Story {
	if s == nil || limit <= 0 {
		return nil
	}
	if s.db != nil {
		return s.listRecentDB(limit)
	}
	return s.listRecentFile(limit)
}

// Close releases the database connection, if any.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

package storystore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Story
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.StoryID)
			if id == "" {
				continue
			}
			s.byID[id] = normalizeStory(row)
		}
	})
}

func (s *Store) saveFile() {
	s.mu.RLock()
	rows := make([]Story, 0, len(s.byID))
	for _, story := range s.byID {
		rows = append(rows, story)
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) putFile(story Story) {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.byID[story.StoryID] = story
	s.mu.Unlock()
	s.saveFile()
}

func (s *Store) getFile(storyID string) (Story, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(storyID)
	if id == "" {
		return Story{}, false
	}
	s.mu.RLock()
	story, ok := s.byID[id]
	s.mu.RUnlock()
	return story, ok
}

func (s *Store) listRecentFile(limit int) []Story {
	s.ensureLoadedFile()
	s.mu.RLock()
	rows := make([]Story, 0, len(s.byID))
	for _, story := range s.byID {
		rows = append(rows, story)
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

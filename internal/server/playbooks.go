package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// PlaybookStore serves playbook files from a directory.
type PlaybookStore struct {
	dir string
}

// NewPlaybookStore creates a store rooted at dir. The directory need not exist yet.
func NewPlaybookStore(dir string) *PlaybookStore {
	return &PlaybookStore{dir: dir}
}

// Dir returns the root directory.
func (s *PlaybookStore) Dir() string { return s.dir }

func isPlaybook(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}

// List returns every *.yml and *.yaml file in the directory sorted by name.
// A missing directory yields an empty list.
func (s *PlaybookStore) List() ([]models.Playbook, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []models.Playbook{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read playbooks directory: %w", err)
	}

	playbooks := []models.Playbook{}
	for _, entry := range entries {
		if entry.IsDir() || !isPlaybook(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		playbooks = append(playbooks, models.Playbook{
			Name:     entry.Name(),
			Path:     filepath.Join(s.dir, entry.Name()),
			Size:     info.Size(),
			Modified: models.NewLocalTimestamp(info.ModTime()),
		})
	}

	sort.Slice(playbooks, func(i, j int) bool { return playbooks[i].Name < playbooks[j].Name })
	return playbooks, nil
}

// path resolves name inside the directory, rejecting anything that is not a bare playbook file name.
func (s *PlaybookStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !isPlaybook(name) {
		return "", fmt.Errorf("%w: playbook %s", shared.ErrNotFound, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Exists reports whether the named playbook is present.
func (s *PlaybookStore) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Content returns the text of the named playbook.
func (s *PlaybookStore) Content(name string) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: playbook %s", shared.ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read playbook: %w", err)
	}
	return string(data), nil
}

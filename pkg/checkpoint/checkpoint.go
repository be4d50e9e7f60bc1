package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"igextract/pkg/logger"
)

const stateVersion = 1

// State is the persisted progress of one target's walk.
type State struct {
	// Target is the target reference the state belongs to, e.g.
	// "timeline:nasa" or "hashtag:sunset".
	Target     string `json:"target"`
	ScrapeType string `json:"scrape_type"`

	// OwnerID is the numeric account id latched from the first timeline
	// page, empty for targets that never needed it.
	OwnerID string `json:"owner_id,omitempty"`

	// Cursor is the continuation token the next page would be fetched
	// with. A resuming run consumes it exactly once.
	Cursor string `json:"cursor"`
	Page   int    `json:"page"`

	// SeenKeys holds the record keys already emitted, so a resumed walk
	// seeds its deduplication set instead of re-emitting old records.
	SeenKeys []string `json:"seen_keys"`
	Items    int      `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// NewState starts a fresh state for a target.
func NewState(target, scrapeType string) *State {
	now := time.Now()
	return &State{
		Target:     target,
		ScrapeType: scrapeType,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    stateVersion,
	}
}

// Manager persists per-target states under one directory.
type Manager struct {
	dir string
	log logger.Logger
}

// NewManager creates a manager over the platform data directory.
func NewManager(log logger.Logger) (*Manager, error) {
	dataDir, err := dataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerAt(filepath.Join(dataDir, "checkpoints"), log)
}

// NewManagerAt creates a manager over an explicit directory.
func NewManagerAt(dir string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	return &Manager{dir: dir, log: log}, nil
}

// Load reads the state for a target. A missing state is not an error; it
// returns nil, nil.
func (m *Manager) Load(target string) (*State, error) {
	file, err := os.Open(m.path(target))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var state State
	if err := json.NewDecoder(file).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.log.WithFields(map[string]interface{}{
		"target":     state.Target,
		"items":      state.Items,
		"cursor":     state.Cursor,
		"updated_at": state.UpdatedAt,
	}).Info("Checkpoint loaded")

	return &state, nil
}

// Save writes the state to disk atomically.
func (m *Manager) Save(state *State) error {
	state.UpdatedAt = time.Now()

	path := m.path(state.Target)
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(state); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.log.WithFields(map[string]interface{}{
		"target": state.Target,
		"items":  state.Items,
		"cursor": state.Cursor,
	}).Debug("Checkpoint saved")

	return nil
}

// Delete removes a target's state file.
func (m *Manager) Delete(target string) error {
	if err := os.Remove(m.path(target)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.log.WithField("target", target).Debug("Checkpoint deleted")
	return nil
}

// Exists reports whether a state file exists for the target.
func (m *Manager) Exists(target string) bool {
	_, err := os.Stat(m.path(target))
	return err == nil
}

// path maps a target reference onto its state file. Separators in the
// reference are flattened so it stays a single file name everywhere.
func (m *Manager) path(target string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, target)
	return filepath.Join(m.dir, name+".checkpoint.json")
}

// dataDirectory returns the appropriate data directory for the current OS.
func dataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "igextract")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "igextract")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "igextract")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "igextract")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

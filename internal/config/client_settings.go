package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// BuiltinTools are the MCP client's own web tools that this server can stand in for
var BuiltinTools = []string{"WebFetch", "WebSearch"}

// ClientSettings edits the permissions.deny list of the client's project
// settings file (.claude/settings.json). Other keys are preserved.
type ClientSettings struct {
	path string
	mu   sync.Mutex
}

// NewClientSettings creates an editor for the settings file at path
func NewClientSettings(path string) *ClientSettings {
	return &ClientSettings{path: path}
}

// Path returns the settings file path
func (s *ClientSettings) Path() string {
	return s.path
}

// BuiltinToolsStatus returns the deny list and whether every built-in tool is on it
func (s *ClientSettings) BuiltinToolsStatus() (deny []string, blocked bool, err error) {
	settings, err := readJSONObject(s.path)
	if err != nil {
		return nil, false, err
	}
	deny = denyList(settings)
	return deny, allDenied(deny), nil
}

// SetBuiltinToolsBlocked adds the built-in tools to the deny list, or removes them,
// and rewrites the file. It returns the resulting deny list.
func (s *ClientSettings) SetBuiltinToolsBlocked(blocked bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := readJSONObject(s.path)
	if err != nil {
		return nil, err
	}

	permissions, ok := settings["permissions"].(map[string]interface{})
	if !ok {
		if _, exists := settings["permissions"]; exists {
			return nil, fmt.Errorf("%s: permissions is not an object", s.path)
		}
		permissions = map[string]interface{}{}
		settings["permissions"] = permissions
	}

	raw, _ := permissions["deny"].([]interface{})
	next := make([]interface{}, 0, len(raw)+len(BuiltinTools))
	for _, entry := range raw {
		if name, ok := entry.(string); blocked || !ok || !slices.Contains(BuiltinTools, name) {
			next = append(next, entry)
		}
	}
	if blocked {
		for _, tool := range BuiltinTools {
			if !slices.Contains(raw, interface{}(tool)) {
				next = append(next, tool)
			}
		}
	}

	permissions["deny"] = next
	if err := writeJSONAtomic(s.path, settings); err != nil {
		return nil, err
	}
	return denyList(settings), nil
}

// FindProjectRoot walks up from start to the nearest directory holding .git.
// It returns start when there is none.
func FindProjectRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func denyList(settings map[string]interface{}) []string {
	permissions, _ := settings["permissions"].(map[string]interface{})
	raw, _ := permissions["deny"].([]interface{})
	deny := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			deny = append(deny, s)
		}
	}
	return deny
}

func allDenied(deny []string) bool {
	for _, tool := range BuiltinTools {
		if !slices.Contains(deny, tool) {
			return false
		}
	}
	return true
}

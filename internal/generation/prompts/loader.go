// Package prompts serves the prompt templates embedded with the binary.
// Each JSON file maps prompt keys to template strings with {{.Key}}
// placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var promptFS embed.FS

var (
	mu    sync.Mutex
	files = make(map[string]map[string]string) // filename -> key -> template
)

// Get returns the template stored under key in the named file. The filename
// is bare, e.g. "customize.json".
func Get(filename, key string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	templates, ok := files[filename]
	if !ok {
		raw, err := promptFS.ReadFile(filename)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file %s: %w", filename, err)
		}
		if err := json.Unmarshal(raw, &templates); err != nil {
			return "", fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
		}
		files[filename] = templates
	}

	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return template, nil
}

// MustGet is Get for prompts required at initialization time.
func MustGet(filename, key string) string {
	template, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return template
}

// Format substitutes {{.Key}} placeholders with values from data.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, 2*len(data))
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

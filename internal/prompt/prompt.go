// Package prompt loads the system instructions sent to the model in the
// initial session configuration.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultInstructions is used when the prompts file is missing or
// malformed. Instructions are not load-bearing the way the credential is,
// so their absence degrades rather than aborts.
const DefaultInstructions = "You are a helpful AI assistant."

// promptsFile is the schema of prompts.json.
type promptsFile struct {
	SystemMessage struct {
		Content string `json:"content"`
	} `json:"system_message"`
}

// Load reads the system instructions from the JSON file at path. The file
// must carry a system_message.content string.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt: read %q: %w", path, err)
	}

	var pf promptsFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("prompt: parse %q: %w", path, err)
	}
	if pf.SystemMessage.Content == "" {
		return "", fmt.Errorf("prompt: %q has no system_message.content", path)
	}
	return pf.SystemMessage.Content, nil
}

// LoadOrDefault returns the instructions from path, falling back to
// [DefaultInstructions] on any error. The error is returned alongside so
// the caller can log the fallback.
func LoadOrDefault(path string) (string, error) {
	instructions, err := Load(path)
	if err != nil {
		return DefaultInstructions, err
	}
	return instructions, nil
}

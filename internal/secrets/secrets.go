// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Recognized keys: openai-api-key, anthropic-api-key, wordpress-app-password.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Recognized secret file names.
const (
	OpenAIKey         = "openai-api-key"
	AnthropicKey      = "anthropic-api-key"
	WordPressPassword = "wordpress-app-password"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets/"

// Store is a loaded set of secrets.
type Store map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty Store. Files that cannot be read are
// reported on warn and skipped.
func Load(dir string, warn io.Writer) (Store, error) {
	if warn == nil {
		warn = io.Discard
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s[name] = v
		}
	}
	return s, nil
}

// Default returns current when it is non-empty, otherwise the stored secret
// for key. Explicit configuration always wins over the secrets directory.
func (s Store) Default(key, current string) string {
	if current != "" {
		return current
	}
	return s[key]
}

// Keys returns the loaded key names in sorted order, never the values.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ProviderKey maps a generation provider name to its secret file name, or ""
// when the provider needs no key.
func ProviderKey(provider string) string {
	switch provider {
	case "openai":
		return OpenAIKey
	case "anthropic":
		return AnthropicKey
	}
	return ""
}

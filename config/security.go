package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Input limits for harness config files and overrides. A complete harness
// config is a few hundred bytes, two levels deep.
const (
	maxConfigSize  = 1 << 20
	maxConfigDepth = 16
	maxConfigNodes = 10000
	maxEnvVarLen   = 256
	maxPathLen     = 4096
)

var configExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// validateConfigPath accepts a JSON or YAML file given either as an absolute
// path or as a relative path that stays under the working directory.
func validateConfigPath(path string) error {
	switch {
	case path == "":
		return errors.New("empty config path")
	case len(path) > maxPathLen:
		return fmt.Errorf("path too long: %d > %d", len(path), maxPathLen)
	case strings.ContainsRune(path, 0):
		return errors.New("null byte in config path")
	case !configExtensions[strings.ToLower(filepath.Ext(path))]:
		return fmt.Errorf("only JSON or YAML config files allowed: %s", path)
	case !filepath.IsAbs(path) && !filepath.IsLocal(path):
		return fmt.Errorf("path traversal not allowed: %s resolves outside working directory", path)
	}
	return nil
}

// readConfigFile reads at most maxConfigSize bytes from a regular file.
// Open errors are returned unwrapped so callers can test os.IsNotExist.
func readConfigFile(path string) ([]byte, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("config file too large: more than %d bytes", maxConfigSize)
	}
	return data, nil
}

// writeConfigFile writes data readable by the owner only.
func writeConfigFile(path string, data []byte) error {
	if err := validateConfigPath(path); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}
	if len(data) > maxConfigSize {
		return fmt.Errorf("config data too large: %d bytes > %d", len(data), maxConfigSize)
	}
	return os.WriteFile(path, data, 0o600)
}

// validateEnvVar rejects override values that cannot be a count, duration or
// strategy name.
func validateEnvVar(key, value string) error {
	if len(value) > maxEnvVarLen {
		return fmt.Errorf("environment variable %s too long: %d > %d", key, len(value), maxEnvVarLen)
	}
	if strings.ContainsFunc(value, unicode.IsControl) {
		return fmt.Errorf("control character in environment variable %s", key)
	}
	return nil
}

// checkStructure bounds a decoded JSON or YAML document. YAML aliases are
// already expanded at this point, so every reference counts toward the
// value limit.
func checkStructure(doc any) error {
	nodes := 0
	var walk func(v any, depth int) error
	walk = func(v any, depth int) error {
		nodes++
		if nodes > maxConfigNodes {
			return fmt.Errorf("config has too many values: more than %d", maxConfigNodes)
		}
		if depth > maxConfigDepth {
			return fmt.Errorf("config nesting too deep: %d > %d", depth, maxConfigDepth)
		}

		var children []any
		switch t := v.(type) {
		case map[string]any:
			for _, c := range t {
				children = append(children, c)
			}
		case map[any]any:
			for _, c := range t {
				children = append(children, c)
			}
		case []any:
			children = t
		}
		for _, c := range children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(doc, 1)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/boundedring/errors"
)

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"empty", "", "empty config path"},
		{"too long", strings.Repeat("a", maxPathLen+1) + ".json", "path too long"},
		{"null byte", "run\x00.json", "null byte"},
		{"escapes working directory", "../../etc/passwd.json", "path traversal"},
		{"wrong extension", "config.ini", "only JSON or YAML"},
		{"json", "config.json", ""},
		{"yaml", "config.yaml", ""},
		{"yml", "nested/config.YML", ""},
		{"absolute", filepath.Join(os.TempDir(), "run.yaml"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadConfigFile_RejectsNonRegular(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dir.json")
	require.NoError(t, os.Mkdir(dir, 0700))

	_, err := readConfigFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestReadConfigFile_RejectsOversized(t *testing.T) {
	path := writeFile(t, "big.yaml", "# "+strings.Repeat("x", maxConfigSize))

	_, err := readConfigFile(path)
	assert.ErrorContains(t, err, "too large")
}

// nestedYAML returns a document whose "notes" key holds n nested flow lists.
func nestedYAML(n int) string {
	return "buffer:\n  capacity: 3\nnotes: " + strings.Repeat("[", n) + strings.Repeat("]", n) + "\n"
}

func TestCheckStructure(t *testing.T) {
	assert.NoError(t, checkStructure(map[string]any{
		"buffer": map[string]any{"capacity": 3, "tags": []any{"a", "b"}},
	}))

	var deep any = []any{}
	for i := 0; i < maxConfigDepth; i++ {
		deep = []any{deep}
	}
	assert.ErrorContains(t, checkStructure(deep), "too deep")

	wide := make([]any, maxConfigNodes)
	assert.ErrorContains(t, checkStructure(map[string]any{"wide": wide}), "too many values")
}

func TestLoader_YAMLStructureLimits(t *testing.T) {
	t.Run("nesting within limit", func(t *testing.T) {
		// root map and the key's lists together reach maxConfigDepth
		path := writeFile(t, "ok.yaml", nestedYAML(maxConfigDepth-1))
		cfg, err := NewLoader().LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Buffer.Capacity)
	})

	t.Run("nesting too deep", func(t *testing.T) {
		path := writeFile(t, "deep.yaml", nestedYAML(maxConfigDepth))
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		assert.True(t, errors.IsInvalid(err))
		assert.Contains(t, err.Error(), "too deep")
	})

	t.Run("alias expansion", func(t *testing.T) {
		doc := "a: &a [x, x, x, x, x, x, x, x, x, x]\n" +
			"b: &b [*a, *a, *a, *a, *a, *a, *a, *a, *a, *a]\n" +
			"c: &c [*b, *b, *b, *b, *b, *b, *b, *b, *b, *b]\n" +
			"d: [*c, *c, *c, *c, *c, *c, *c, *c, *c, *c]\n"
		path := writeFile(t, "aliases.yml", doc)
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})

	t.Run("json nesting too deep", func(t *testing.T) {
		n := maxConfigDepth
		path := writeFile(t, "deep.json", `{"notes": `+strings.Repeat("[", n)+strings.Repeat("]", n)+`}`)
		_, err := NewLoader().LoadFile(path)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})
}

func TestValidateEnvVar(t *testing.T) {
	assert.NoError(t, validateEnvVar("K", ""))
	assert.NoError(t, validateEnvVar("K", "permit"))
	assert.NoError(t, validateEnvVar("K", "250ms"))
	assert.Error(t, validateEnvVar("K", "a\x00b"))
	assert.Error(t, validateEnvVar("K", "permit\nmonitor"))
	assert.Error(t, validateEnvVar("K", strings.Repeat("x", maxEnvVarLen+1)))
}

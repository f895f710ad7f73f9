package heap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heap.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(0x10000000), cfg.Base)
	assert.Equal(t, uint32(4<<20), cfg.Size)
	assert.Equal(t, uint32(1024), cfg.FrameCount())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"null base", func(c *Config) { c.Base = 0 }},
		{"unaligned base", func(c *Config) { c.Base = 0x10000010 }},
		{"zero size", func(c *Config) { c.Size = 0 }},
		{"unaligned size", func(c *Config) { c.Size = 5000 }},
		{"range overflow", func(c *Config) { c.Base = 0xFFFFF000; c.Size = 0x2000 }},
		{"reserved frame out of range", func(c *Config) { c.Frames = 4; c.Reserved = []uint32{4} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
base = 0x20000000
size = 65536
reserved_frames = [0, 1]
seed = 7
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20000000), cfg.Base)
	assert.Equal(t, uint32(65536), cfg.Size)
	assert.Equal(t, []uint32{0, 1}, cfg.Reserved)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, uint32(16), cfg.FrameCount())
	assert.False(t, cfg.LogAlloc)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "sizee = 4096\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "sizee")

	_, err = LoadConfig(writeConfig(t, "size = 100\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "size = [\n"))
	require.Error(t, err)
}

func TestConfig_EncodeLoads(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Frames = 2048
	cfg.Reserved = []uint32{3}

	var out bytes.Buffer
	require.NoError(t, cfg.Encode(&out))
	assert.Contains(t, out.String(), "reserved_frames")

	loaded, err := LoadConfig(writeConfig(t, out.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

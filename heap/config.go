package heap

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/kheapkit/internal/format"
)

// ErrInvalidConfig indicates a configuration that cannot describe a heap.
var ErrInvalidConfig = errors.New("heap: invalid config")

const (
	// DefaultBase is the linear address the heap starts at.
	DefaultBase = 0x10000000

	// DefaultSize is the size of the reserved range (4 MiB).
	DefaultSize = 4 << 20
)

// Config describes one heap: where its linear range lives, how large it may
// grow and how many physical frames back it.
type Config struct {
	Base     uint32   `toml:"base"`            // first linear address, page aligned and non-zero
	Size     uint32   `toml:"size"`            // reserved bytes, page aligned
	Frames   uint32   `toml:"frames"`          // physical frames; 0 means one per page
	Reserved []uint32 `toml:"reserved_frames"` // frames marked used before the first growth
	Seed     uint64   `toml:"seed"`            // skip-list level seed
	LogAlloc bool     `toml:"log_alloc"`       // trace every allocation at debug level
}

// DefaultConfig returns the stock heap layout.
func DefaultConfig() Config {
	return Config{
		Base: DefaultBase,
		Size: DefaultSize,
		Seed: 1,
	}
}

// FrameCount returns the number of frames the page source manages.
func (c Config) FrameCount() uint32 {
	if c.Frames == 0 {
		return c.Size / format.PageSize
	}
	return c.Frames
}

// Validate checks the config for a usable layout.
func (c Config) Validate() error {
	switch {
	case c.Base == format.Null:
		return fmt.Errorf("%w: base must be non-zero", ErrInvalidConfig)
	case !format.IsPageAligned(c.Base):
		return fmt.Errorf("%w: base %#x not page aligned", ErrInvalidConfig, c.Base)
	case c.Size == 0 || !format.IsPageAligned(c.Size):
		return fmt.Errorf("%w: size %#x not a positive multiple of %#x", ErrInvalidConfig, c.Size, format.PageSize)
	case uint64(c.Base)+uint64(c.Size) > math.MaxUint32:
		return fmt.Errorf("%w: range %#x+%#x exceeds 32 bits", ErrInvalidConfig, c.Base, c.Size)
	}
	for _, f := range c.Reserved {
		if f >= c.FrameCount() {
			return fmt.Errorf("%w: reserved frame %d outside [0, %d)", ErrInvalidConfig, f, c.FrameCount())
		}
	}
	return nil
}

// LoadConfig reads a TOML config file. Keys missing from the file keep
// their DefaultConfig values; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("heap: load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes the config as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Package config loads the boot-time configuration of the kernel from a
// TOML file, the way gvisor's pkg/v2/service.go and
// cmd/gvisor-containerd-shim/config.go load their runtime configuration.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// MemoryPolicy selects the address-space translation strategy.
type MemoryPolicy string

const (
	// Eager loads every page at construction time.
	Eager MemoryPolicy = "eager"
	// Lazy demand-loads pages through the TLB miss handler.
	Lazy MemoryPolicy = "lazy"
	// Swap is Lazy plus a per-process swap file and frame eviction.
	Swap MemoryPolicy = "swap"
)

// ReplacementPolicy selects the core-map eviction policy.
type ReplacementPolicy string

const (
	FIFO ReplacementPolicy = "fifo"
	LRU  ReplacementPolicy = "lru"
)

// Config is the kernel's boot configuration. Zero value is not valid;
// always obtain one via Default() or Load().
type Config struct {
	// NumPriorities is P: ready queues are indexed 0..NumPriorities-1.
	NumPriorities int `toml:"num_priorities"`

	// PageSize and NumPhysPages size the simulated physical memory.
	PageSize     int `toml:"page_size"`
	NumPhysPages int `toml:"num_phys_pages"`

	// UserStackPages is the number of pages reserved for the user stack
	// when computing numPages at address-space construction.
	UserStackPages int `toml:"user_stack_pages"`

	// NumDirect is NUM_DIRECT, the number of direct data sectors a file
	// header can hold.
	NumDirect int `toml:"num_direct"`

	// SectorSize and NumSectors size the simulated disk.
	SectorSize int `toml:"sector_size"`
	NumSectors int `toml:"num_sectors"`

	// NameMax bounds a single path component.
	NameMax int `toml:"name_max"`

	// TLBSize is the number of slots in the simulated translation
	// cache consulted by the TLB handler.
	TLBSize int `toml:"tlb_size"`

	// Memory selects the translation strategy; Replacement only matters
	// when Memory == Swap, since the other strategies never evict a frame.
	Memory      MemoryPolicy      `toml:"memory_policy"`
	Replacement ReplacementPolicy `toml:"replacement_policy"`

	// DiskImage is the path to the backing file for the simulated disk.
	DiskImage string `toml:"disk_image"`

	// ConsolePTY, if true, backs the console bridge with a real
	// pseudo-terminal instead of an in-memory loopback (pkg/console).
	ConsolePTY bool `toml:"console_pty"`
}

// Default returns the configuration used by the test harness and by
// `nachos boot` when no -config flag is given.
func Default() Config {
	return Config{
		NumPriorities:  10,
		PageSize:       128,
		NumPhysPages:   32,
		UserStackPages: 8,
		NumDirect:      30,
		SectorSize:     128,
		NumSectors:     4096,
		NameMax:        64,
		TLBSize:        4,
		Memory:         Eager,
		Replacement:    FIFO,
		DiskImage:      "nachos.disk",
		ConsolePTY:     false,
	}
}

// Load reads a TOML configuration file, starting from Default() so a
// partial file only overrides the fields it mentions.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the kernel assumes hold.
func (c Config) Validate() error {
	if c.NumPriorities <= 0 {
		return fmt.Errorf("config: num_priorities must be positive")
	}
	if c.PageSize <= 0 || c.NumPhysPages <= 0 {
		return fmt.Errorf("config: page_size and num_phys_pages must be positive")
	}
	if c.SectorSize <= 0 || c.NumSectors <= 0 {
		return fmt.Errorf("config: sector_size and num_sectors must be positive")
	}
	switch c.Memory {
	case Eager, Lazy, Swap:
	default:
		return fmt.Errorf("config: unknown memory_policy %q", c.Memory)
	}
	switch c.Replacement {
	case FIFO, LRU:
	default:
		return fmt.Errorf("config: unknown replacement_policy %q", c.Replacement)
	}
	return nil
}

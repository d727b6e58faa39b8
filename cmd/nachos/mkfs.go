package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/Weheineman/nachOS/pkg/disk"
	"github.com/Weheineman/nachOS/pkg/fs"
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
)

// mkfsCommand implements subcommands.Command for "mkfs".
type mkfsCommand struct {
	configPath string
}

func (*mkfsCommand) Name() string     { return "mkfs" }
func (*mkfsCommand) Synopsis() string { return "format a fresh disk image" }
func (*mkfsCommand) Usage() string {
	return "mkfs [-config path]\n  writes the free-map and root-directory headers to a new disk image.\n"
}

func (c *mkfsCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a TOML configuration file (defaults built in if omitted)")
}

func (c *mkfsCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}

	sched := kernel.NewScheduler(cfg.NumPriorities)
	d, err := disk.Open(cfg.DiskImage, cfg.SectorSize, cfg.NumSectors, sched)
	if err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}
	defer d.Close()

	if err := fs.Format(sched.MainThread(), d, cfg.NumSectors, cfg.NumDirect, cfg.NameMax); err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}
	log.Infof("mkfs: formatted %s (%d sectors of %d bytes)", cfg.DiskImage, cfg.NumSectors, cfg.SectorSize)
	return subcommands.ExitSuccess
}

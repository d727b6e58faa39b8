package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/Weheineman/nachOS/pkg/config"
	"github.com/Weheineman/nachOS/pkg/console"
	"github.com/Weheineman/nachOS/pkg/disk"
	"github.com/Weheineman/nachOS/pkg/fs"
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
	"github.com/Weheineman/nachOS/pkg/machine"
	"github.com/Weheineman/nachOS/pkg/syscall"
	"github.com/Weheineman/nachOS/pkg/vm"
)

// newEmulator and newExecLoader are the seams for the two collaborators
// this module never implements directly: the MIPS instruction emulator
// and the NOFF executable container parser. A deployment wires them
// from whatever concrete emulator package it links in; left nil here,
// "boot" reports a clear configuration error rather than silently
// no-op'ing.
var (
	newEmulator   func(cfg config.Config, mem *vm.PhysicalMemory) (machine.Emulator, error)
	newExecLoader func(cfg config.Config) syscall.ExecLoader
)

// bootCommand implements subcommands.Command for "boot".
type bootCommand struct {
	configPath string
}

func (*bootCommand) Name() string     { return "boot" }
func (*bootCommand) Synopsis() string { return "boot the kernel and run one user program" }
func (*bootCommand) Usage() string {
	return "boot [-config path] <executable>\n  wires the scheduler, filesystem, address-space, and syscall dispatch layers, then Execs <executable> as the initial user process.\n"
}

func (c *bootCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a TOML configuration file (defaults built in if omitted)")
}

func (c *bootCommand) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if newEmulator == nil || newExecLoader == nil {
		fmt.Fprintln(errWriter, "boot: no emulator/executable-loader backend registered; link one via newEmulator/newExecLoader before calling boot")
		return subcommands.ExitFailure
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}

	sched := kernel.NewScheduler(cfg.NumPriorities)
	self := sched.MainThread()

	d, err := disk.Open(cfg.DiskImage, cfg.SectorSize, cfg.NumSectors, sched)
	if err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}
	defer d.Close()
	fsys := fs.New(sched, d, cfg.NumSectors, cfg.NumDirect, cfg.NameMax)

	mem := vm.NewPhysicalMemory(cfg.PageSize, cfg.NumPhysPages)
	coreMap := vm.NewCoreMap(sched, mem, cfg.NumPhysPages, cfg.Replacement, cfg.Memory == config.Swap)

	emu, err := newEmulator(cfg, mem)
	if err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}
	vm.InstallHandlers(sched, emu, coreMap)

	var bridge *console.Bridge
	if cfg.ConsolePTY {
		b, slavePath, err := console.Open(sched)
		if err != nil {
			fmt.Fprintln(errWriter, err)
			return subcommands.ExitFailure
		}
		defer b.Close()
		log.Infof("boot: console pty slave at %s", slavePath)
		bridge = b
	} else {
		bridge = console.Loopback(sched, os.Stdin, os.Stdout)
	}

	execLoader := newExecLoader(cfg)
	dispatcher := syscall.NewDispatcher(sched, fsys, bridge, cfg, mem, coreMap, execLoader, func() {
		log.Infof("boot: Halt")
		os.Exit(0)
	})

	self.SetFileTable(fs.NewFileTable())

	exe, err := execLoader(self, f.Arg(0))
	if err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}
	space, err := vm.NewAddressSpace(self, 1, exe, cfg.PageSize, cfg.UserStackPages, cfg.TLBSize, cfg.Memory, mem, coreMap, fsys)
	if err != nil {
		fmt.Fprintln(errWriter, err)
		return subcommands.ExitFailure
	}
	self.SetAddressSpace(space)

	for {
		switch emu.Run() {
		case machine.SyscallException:
			dispatcher.Handle(self, emu)
		case machine.NoException:
			return subcommands.ExitSuccess
		default:
			log.Warningf("boot: unhandled exception from main thread")
			return subcommands.ExitFailure
		}
	}
}

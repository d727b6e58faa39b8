// Command nachos is the kernel's entrypoint: a subcommands.Command tree
// (mkfs, boot) in the style of gvisor's runsc/cli, loading pkg/config
// from a TOML file before constructing the kernel context.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/Weheineman/nachOS/pkg/log"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&mkfsCommand{}, "")
	subcommands.Register(&bootCommand{}, "")

	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()
	log.SetDebug(*debug)

	os.Exit(int(subcommands.Execute(context.Background())))
}

// Command olv is Olive's command-line front end: run/compile/emit/
// repl/watch subcommands over the lexer, parser, codegen, codec, and
// vm packages, wired through github.com/google/subcommands.Commander.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "olv")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&runCmd{}, "")
	commander.Register(&compileCmd{}, "")
	commander.Register(&emitCmd{}, "")
	commander.Register(&replCmd{}, "")
	commander.Register(&watchCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(commander.Execute(ctx)))
}

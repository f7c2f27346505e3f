package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/informatter/olive/internal/codec"
	"github.com/informatter/olive/internal/config"
	"github.com/informatter/olive/internal/native"
	"github.com/informatter/olive/internal/pipeline"
	"github.com/informatter/olive/internal/source"
	"github.com/informatter/olive/internal/vm"
)

// runCmd executes an .olv source file or an already-compiled .olvc
// unit, detecting which one it was handed from its magic bytes instead
// of requiring two separate verbs.
type runCmd struct {
	debug bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute an Olive source file or compiled unit" }
func (*runCmd) Usage() string {
	return "run <file.olv|file.olvc>:\n  Execute Olive code.\n"
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.debug, "debug", false, "log opcode dispatch at debug level")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "olv run: file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv run: failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	cfg, _ := config.LoadOptional("olive.yaml")

	var logLevel slog.Level = slog.LevelInfo
	if r.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	machine := vm.New(logger).WithStackCapacity(cfg.StackCapacity)
	native.Install(machine, machine.Heap(), os.Stdout)

	if codec.IsCompiledUnit(data) {
		compiled, diag := codec.Decode(data)
		if diag != nil {
			printDiagnostic(os.Stderr, diag)
			return subcommands.ExitFailure
		}
		_, diag = machine.Run(compiled)
		if diag != nil {
			printDiagnostic(os.Stderr, diag)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	text := string(data)
	generated, diags := pipeline.Compile(text)
	if len(diags) > 0 {
		printDiagnostics(os.Stderr, diags)
		return subcommands.ExitFailure
	}

	machine.WithSource(source.NewMap(text))
	_, diag := machine.Run(generated)
	if diag != nil {
		printDiagnostic(os.Stderr, diag)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/informatter/olive/internal/codec"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/pipeline"
)

// compileCmd compiles an .olv source file to a binary .olvc compiled
// unit, the counterpart to cmd_run_compiled.go's inline compile step
// pulled out into its own verb so a unit can be produced once and run
// many times via `olv run`.
type compileCmd struct {
	out string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "compile an Olive source file to a .olvc unit" }
func (*compileCmd) Usage() string {
	return "compile <file.olv>:\n  Compile Olive source to a binary compiled unit.\n"
}
func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "output", "", "output path (default: input with .olvc extension)")
}

func (c *compileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "olv compile: file not provided")
		return subcommands.ExitUsageError
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv compile: failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}
	if codec.IsCompiledUnit(data) {
		printDiagnostic(os.Stderr, diagnostics.New(diagnostics.CompileCompiled, 0, 0,
			path+" is already a compiled unit"))
		return subcommands.ExitFailure
	}

	generated, diags := pipeline.Compile(string(data))
	if len(diags) > 0 {
		printDiagnostics(os.Stderr, diags)
		return subcommands.ExitFailure
	}

	encoded, err := codec.Encode(generated)
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv compile: %v\n", err)
		return subcommands.ExitFailure
	}

	outPath := c.out
	if outPath == "" {
		outPath = strings.TrimSuffix(path, ".olv") + ".olvc"
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "olv compile: failed to write %s: %v\n", outPath, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("wrote %s\n", outPath)
	return subcommands.ExitSuccess
}

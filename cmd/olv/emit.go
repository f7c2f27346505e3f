package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/informatter/olive/internal/pipeline"
)

// emitCmd writes a human-readable disassembly of an .olv file's
// bytecode, the non-binary counterpart of cmd_emit_bytecode.go's
// diassemble flag.
type emitCmd struct {
	out string
}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "disassemble an Olive source file's bytecode" }
func (*emitCmd) Usage() string {
	return "emit <file.olv>:\n  Print the bytecode disassembly for a source file.\n"
}
func (e *emitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.out, "out", "", "write disassembly to this path instead of stdout")
}

func (e *emitCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "olv emit: file not provided")
		return subcommands.ExitUsageError
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv emit: failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	generated, diags := pipeline.Compile(string(data))
	if len(diags) > 0 {
		printDiagnostics(os.Stderr, diags)
		return subcommands.ExitFailure
	}

	dump := generated.Disassemble()
	if e.out == "" {
		fmt.Println(dump)
		return subcommands.ExitSuccess
	}

	outPath := e.out
	if !strings.Contains(outPath, ".") {
		outPath += ".dis"
	}
	if err := os.WriteFile(outPath, []byte(dump), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "olv emit: failed to write %s: %v\n", outPath, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("wrote %s\n", outPath)
	return subcommands.ExitSuccess
}

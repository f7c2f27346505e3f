package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/subcommands"

	"github.com/informatter/olive/internal/config"
	"github.com/informatter/olive/internal/native"
	"github.com/informatter/olive/internal/pipeline"
	"github.com/informatter/olive/internal/source"
	"github.com/informatter/olive/internal/vm"
)

// watchCmd recompiles and reruns an .olv file every time it's saved,
// composing the run subcommand's compile-and-execute step with an
// fsnotify watcher on the file's containing directory (fsnotify
// watches directories, not individual files, since editors commonly
// replace a file via rename-on-save rather than an in-place write).
type watchCmd struct{}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "recompile and rerun an Olive file on save" }
func (*watchCmd) Usage() string {
	return "watch <file.olv>:\n  Rerun a source file every time it changes.\n"
}
func (*watchCmd) SetFlags(f *flag.FlagSet) {}

func (*watchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "olv watch: file not provided")
		return subcommands.ExitUsageError
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv watch: %v\n", err)
		return subcommands.ExitFailure
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv watch: %v\n", err)
		return subcommands.ExitFailure
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		fmt.Fprintf(os.Stderr, "olv watch: %v\n", err)
		return subcommands.ExitFailure
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	runOnce(path, logger)

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return subcommands.ExitSuccess
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			runOnce(path, logger)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return subcommands.ExitSuccess
			}
			logger.Error("watch", "error", werr)
		}
	}
}

func runOnce(path string, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv watch: failed to read file: %v\n", err)
		return
	}

	text := string(data)
	generated, diags := pipeline.Compile(text)
	if len(diags) > 0 {
		printDiagnostics(os.Stderr, diags)
		return
	}

	cfg, _ := config.LoadOptional("olive.yaml")
	machine := vm.New(logger).WithStackCapacity(cfg.StackCapacity).WithSource(source.NewMap(text))
	native.Install(machine, machine.Heap(), os.Stdout)

	fmt.Printf("--- running %s ---\n", filepath.Base(path))
	if _, diag := machine.Run(generated); diag != nil {
		printDiagnostic(os.Stderr, diag)
	}
}

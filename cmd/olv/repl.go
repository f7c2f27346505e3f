package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/informatter/olive/internal/codegen"
	"github.com/informatter/olive/internal/config"
	"github.com/informatter/olive/internal/diagnostics"
	"github.com/informatter/olive/internal/lexer"
	"github.com/informatter/olive/internal/native"
	"github.com/informatter/olive/internal/parser"
	"github.com/informatter/olive/internal/source"
	"github.com/informatter/olive/internal/token"
	"github.com/informatter/olive/internal/value"
	"github.com/informatter/olive/internal/vm"
)

// replCmd starts an interactive session that uses readline for
// history/editing and keeps buffering multi-line input while it looks
// incomplete: unbalanced braces, or parse errors that all sit at
// end-of-input.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive Olive session" }
func (*replCmd) Usage() string    { return "repl:\n  Start an interactive REPL session.\n" }
func (*replCmd) SetFlags(f *flag.FlagSet) {}

const banner = `
   ___  _ _
  / _ \| (_)_   _____
 | | | | | \ \ / / _ \
 | |_| | | |\ V /  __/
  \___/|_|_| \_/ \___|
`

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	bannerColor.Fprintln(os.Stdout, banner)
	fmt.Println("Welcome to Olive. Type an expression or statement, or 'exit' to quit.")

	cfg, _ := config.LoadOptional("olive.yaml")

	rlConfig := &readline.Config{Prompt: ">>> "}
	if cfg.REPLHistory {
		rlConfig.HistoryFile = cfg.HistoryFile
	}
	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "olv repl: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New(nil).WithStackCapacity(cfg.StackCapacity)
	native.Install(machine, machine.Heap(), os.Stdout)

	runSession(rl, os.Stdout, machine)
	return subcommands.ExitSuccess
}

func runSession(rl *readline.Instance, out io.Writer, machine *vm.VM) {
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		text := buffer.String()
		rl.SaveHistory(line)

		lex := lexer.New(text)
		tokens, lexErr := lex.Scan()
		if lexErr != nil {
			printDiagnostic(os.Stderr, lexErr)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		p := parser.New(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			if allErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			printDiagnostics(os.Stderr, parseErrs)
			buffer.Reset()
			continue
		}

		generated, genErrs := codegen.Generate(statements)
		if len(genErrs) > 0 {
			printDiagnostics(os.Stderr, genErrs)
			buffer.Reset()
			continue
		}

		machine.WithSource(source.NewMap(text))
		result, runErr := machine.Run(generated)
		if runErr != nil {
			printDiagnostic(os.Stderr, runErr)
			buffer.Reset()
			continue
		}
		if !result.IsNone() {
			printResult(out, value.ToString(result, machine.Heap()))
		}
		buffer.Reset()
	}
}

// isInputReady reports whether the accumulated input looks complete: no
// unbalanced braces, and the last non-EOF token isn't an operator or
// keyword that obviously expects a continuation.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, t := range tokens {
		switch t.Type {
		case token.LBRACE:
			braceBalance++
		case token.RBRACE:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}
	switch last.Type {
	case token.ASSIGN, token.PLUS, token.MINUS, token.STAR, token.SLASH, token.SLASH_SLASH,
		token.PERCENT, token.BANG, token.EQUAL_EQUAL, token.NOT_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL,
		token.COMMA, token.LPAREN, token.LBRACE, token.LBRACKET,
		token.IF, token.ELSE, token.WHILE, token.FUN, token.RETURN,
		token.AND, token.OR, token.NEW:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allErrorsAtEOF reports whether every parse error was raised at the
// position of the final EOF token, meaning the user likely just hasn't
// finished typing yet rather than made a real mistake.
func allErrorsAtEOF(errs []*diagnostics.Diagnostic, eof token.Token) bool {
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if e.Line != eof.Line || e.Column != eof.Column {
			return false
		}
	}
	return true
}

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/informatter/olive/internal/diagnostics"
)

var (
	errorColor  = color.New(color.FgRed, color.Bold)
	resultColor = color.New(color.FgYellow)
	bannerColor = color.New(color.FgGreen)
)

// printDiagnostics renders each diagnostic in red, one per line.
func printDiagnostics(w io.Writer, diags []*diagnostics.Diagnostic) {
	for _, d := range diags {
		errorColor.Fprintf(w, "%s\n", d.Error())
	}
}

func printDiagnostic(w io.Writer, d *diagnostics.Diagnostic) {
	errorColor.Fprintf(w, "%s\n", d.Error())
}

func printResult(w io.Writer, s string) {
	resultColor.Fprintf(w, "%s\n", fmt.Sprint(s))
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/thomasrohde/cookbook/pkg/config"
	"github.com/thomasrohde/cookbook/pkg/diagnostics"
	"github.com/thomasrohde/cookbook/pkg/evaluator"
	"github.com/thomasrohde/cookbook/pkg/formatter"
	"github.com/thomasrohde/cookbook/pkg/help"
	"github.com/thomasrohde/cookbook/pkg/lexer"
	"github.com/thomasrohde/cookbook/pkg/parser"
	"github.com/thomasrohde/cookbook/pkg/runtime"
)

const (
	exitOK      = runtime.ExitOK
	exitUsage   = runtime.ExitUsage
	exitSyntax  = runtime.ExitSyntax
	exitRuntime = runtime.ExitRuntime
)

// useColor resolves a color mode for w.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *session) paint(attrs []color.Attribute, text string) string {
	c := color.New(attrs...)
	if s.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

func (s *session) errorText(text string) string {
	return s.paint([]color.Attribute{color.FgRed, color.Bold}, text)
}

func (s *session) warningText(text string) string {
	return s.paint([]color.Attribute{color.FgYellow}, text)
}

// printDiags writes one pretty diagnostic per line to stderr.
func (s *session) printDiags(diags []diagnostics.Diagnostic) {
	for _, d := range diags {
		line := diagnostics.FormatDiagnostic(d, true)
		if d.IsError() {
			line = s.errorText(line)
		} else {
			line = s.warningText(line)
		}
		fmt.Fprintln(s.stderr, line)
	}
}

func (s *session) newRuntime(extra ...runtime.Option) *runtime.Runtime {
	opts := []runtime.Option{
		runtime.WithStdout(s.stdout),
		runtime.WithLogger(s.logger),
	}
	return runtime.New(append(opts, extra...)...)
}

func (s *session) runFile(path, tracePath string) int {
	source, ok := s.readSource(path)
	if !ok {
		return exitUsage
	}

	if tracePath == "" {
		tracePath = s.cfg.TraceFile
	}
	var extra []runtime.Option
	if tracePath != "" {
		tw, err := newTraceWriter(tracePath)
		if err != nil {
			fmt.Fprintln(s.stderr, s.errorText(err.Error()))
			return exitUsage
		}
		defer func() {
			if err := tw.Close(); err != nil {
				fmt.Fprintln(s.stderr, s.errorText(err.Error()))
			}
		}()
		extra = append(extra, runtime.WithTrace(tw.Write))
	}

	rt := s.newRuntime(extra...)
	res, err := rt.Run(source, path)
	s.printDiags(res.Diagnostics)

	var rerr *evaluator.RuntimeError
	if errors.As(err, &rerr) {
		s.printDiags([]diagnostics.Diagnostic{rerr.Diagnostic()})
	} else if err != nil {
		fmt.Fprintln(s.stderr, s.errorText(err.Error()))
	}
	return runtime.ExitCode(res, err)
}

func (s *session) checkFile(path string, asJSON bool) int {
	source, ok := s.readSource(path)
	if !ok {
		return exitUsage
	}
	diags := s.newRuntime().Check(source, path)

	if asJSON {
		if diags == nil {
			diags = []diagnostics.Diagnostic{}
		}
		fmt.Fprintln(s.stdout, diagnostics.FormatDiagnostics(diags, false))
	} else if len(diags) == 0 {
		fmt.Fprintln(s.stdout, "No problems found.")
	} else {
		s.printDiags(diags)
	}

	if diagnostics.HasErrors(diags) {
		return exitSyntax
	}
	return exitOK
}

func (s *session) formatFile(path string, write bool) int {
	source, ok := s.readSource(path)
	if !ok {
		return exitUsage
	}
	formatted, err := s.newRuntime().Format(source, path)
	if err != nil {
		var derr *runtime.DiagnosticError
		if errors.As(err, &derr) {
			s.printDiags(derr.Diagnostics)
			return exitSyntax
		}
		fmt.Fprintln(s.stderr, s.errorText(err.Error()))
		return exitUsage
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(s.stderr, s.warningText("warning: comments are not preserved by the formatter"))
	}

	if !write {
		fmt.Fprint(s.stdout, formatted)
		return exitOK
	}
	if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
		fmt.Fprintln(s.stderr, s.errorText(fmt.Sprintf("error writing file: %s", err)))
		return exitUsage
	}
	return exitOK
}

func (s *session) tokensFile(path string) int {
	source, ok := s.readSource(path)
	if !ok {
		return exitUsage
	}
	tokens, diags := lexer.Tokenize(source, path)

	table := tablewriter.NewWriter(s.stdout)
	table.SetHeader([]string{"Line", "Col", "Type", "Lexeme", "Literal"})
	table.SetAutoWrapText(false)
	for _, tok := range tokens {
		literal := ""
		if tok.Literal != nil {
			literal = fmt.Sprint(tok.Literal)
		}
		table.Append([]string{
			strconv.Itoa(tok.Span.StartLine),
			strconv.Itoa(tok.Span.StartCol),
			tok.Type.String(),
			strings.ReplaceAll(tok.Lexeme, "\n", `\n`),
			literal,
		})
	}
	table.Render()

	s.printDiags(diags)
	if diagnostics.HasErrors(diags) {
		return exitSyntax
	}
	return exitOK
}

func (s *session) astFile(path string, raw bool) int {
	source, ok := s.readSource(path)
	if !ok {
		return exitUsage
	}
	program, diags := parser.Parse(source, path)
	if raw {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
		cfg.Fdump(s.stdout, program)
	} else {
		fmt.Fprint(s.stdout, formatter.Dump(program))
	}

	s.printDiags(diags)
	if diagnostics.HasErrors(diags) {
		return exitSyntax
	}
	return exitOK
}

func (s *session) help(topic string) int {
	if topic == "" {
		fmt.Fprint(s.stdout, help.QUICKREF)
		return exitOK
	}
	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(s.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return exitUsage
	}
	fmt.Fprint(s.stdout, content)
	return exitOK
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

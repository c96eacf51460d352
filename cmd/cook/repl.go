package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/thomasrohde/cookbook/pkg/diagnostics"
	"github.com/thomasrohde/cookbook/pkg/evaluator"
	"github.com/thomasrohde/cookbook/pkg/lexer"
	"github.com/thomasrohde/cookbook/pkg/runtime"
)

const banner = `Cookbook ` + version + `. Type :help for commands, :quit or Ctrl-D to leave.`

// lineReader is the part of liner.State the REPL needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scannerReader reads lines from a non-terminal input, echoing nothing.
type scannerReader struct {
	sc *bufio.Scanner
}

func (r *scannerReader) Prompt(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scannerReader) AppendHistory(string) {}

func (s *session) repl() int {
	if f, ok := s.stdin.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		return s.replLoop(&scannerReader{sc: bufio.NewScanner(s.stdin)}, false)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := s.cfg.HistoryFile
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	code := s.replLoop(ln, true)

	if histPath != "" {
		if err := os.MkdirAll(filepath.Dir(histPath), 0o755); err == nil {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}
	}
	return code
}

// replLoop evaluates chunks until EOF or :quit. Errors are printed and the
// session continues with its globals intact.
func (s *session) replLoop(in lineReader, interactive bool) int {
	if interactive {
		fmt.Fprintln(s.stdout, banner)
	}
	rt := s.newRuntime()

	for {
		src, ok := s.readChunk(in, interactive)
		if !ok {
			if interactive {
				fmt.Fprintln(s.stdout)
			}
			return exitOK
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		in.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			var quit bool
			rt, quit = s.replCommand(rt, trimmed)
			if quit {
				return exitOK
			}
			continue
		}

		res, err := rt.Run(src, "repl")
		s.printDiags(res.Diagnostics)
		var rerr *evaluator.RuntimeError
		if errors.As(err, &rerr) {
			s.printDiags([]diagnostics.Diagnostic{rerr.Diagnostic()})
			continue
		}
		if res.Value != nil {
			if _, isNil := res.Value.(evaluator.Nil); !isNil {
				fmt.Fprintln(s.stdout, evaluator.Stringify(res.Value))
			}
		}
	}
}

// readChunk reads lines until braces balance and no string is left open.
func (s *session) readChunk(in lineReader, interactive bool) (string, bool) {
	var b strings.Builder
	for {
		prompt := s.cfg.Prompt
		if b.Len() > 0 {
			prompt = s.cfg.ContinuationPrompt
		}
		if !interactive {
			prompt = ""
		}

		line, err := in.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl-C drops the pending input.
			return "", true
		}
		if err != nil {
			if b.Len() > 0 && errors.Is(err, io.EOF) {
				return b.String(), true
			}
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !needsMore(b.String()) {
			return b.String(), true
		}
	}
}

// needsMore reports whether src is an unfinished chunk: an open brace or
// an unterminated string.
func needsMore(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	tokens, diags := lexer.Tokenize(src, "repl")
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case lexer.TokLBrace:
			depth++
		case lexer.TokRBrace:
			depth--
		}
	}
	if depth > 0 {
		return true
	}
	for _, d := range diags {
		if d.Message == "Unterminated string." {
			return true
		}
	}
	return false
}

// replCommand handles ":" commands and returns the runtime to continue
// with.
func (s *session) replCommand(rt *runtime.Runtime, line string) (*runtime.Runtime, bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return rt, true
	case ":help":
		topic := ""
		if len(fields) > 1 {
			topic = fields[1]
		}
		s.help(topic)
	case ":globals":
		fmt.Fprintln(s.stdout, strings.Join(rt.Globals(), " "))
	case ":reset":
		fmt.Fprintln(s.stdout, "session reset")
		return s.newRuntime(), false
	default:
		fmt.Fprintln(s.stderr, s.errorText(fmt.Sprintf("unknown command %s (try :help, :globals, :reset, :quit)", fields[0])))
	}
	return rt, false
}

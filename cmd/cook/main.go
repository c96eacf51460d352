// Command cook runs, checks and formats Cookbook programs and hosts the
// interactive REPL.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/thomasrohde/cookbook/pkg/config"
)

const version = "1.0.0"

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML or TOML configuration file",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "log debug output to stderr",
	}
	colorFlag = cli.StringFlag{
		Name:  "color",
		Usage: "colorize diagnostics: auto, always or never",
	}
	traceFlag = cli.StringFlag{
		Name:  "trace",
		Usage: "write NDJSON trace events to `FILE`",
	}
	writeFlag = cli.BoolFlag{
		Name:  "write, w",
		Usage: "write the result back to the source file",
	}
	rawFlag = cli.BoolFlag{
		Name:  "raw",
		Usage: "dump the Go structures instead of the prefix form",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "print diagnostics as JSON",
	}
	textFlag = cli.BoolFlag{
		Name:  "text",
		Usage: "print a human-readable table",
	}
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// run builds and runs the CLI app and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := &session{stdin: stdin, stdout: stdout, stderr: stderr}
	code := 0

	app := cli.NewApp()
	app.Name = "cook"
	app.Usage = "run Cookbook recipes"
	app.UsageText = "cook [global options] command [arguments...]\n   cook FILE\n   cook"
	app.Version = version
	app.Writer = stdout
	app.ErrWriter = stderr
	app.HideHelp = true
	app.Flags = []cli.Flag{configFlag, verboseFlag, colorFlag}
	app.Before = func(ctx *cli.Context) error {
		return s.setup(ctx)
	}
	app.Action = func(ctx *cli.Context) error {
		if ctx.NArg() > 0 {
			code = s.runFile(ctx.Args().First(), "")
			return nil
		}
		code = s.repl()
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "execute a program",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{traceFlag},
			Action: func(ctx *cli.Context) error {
				code = s.withFile(ctx, func(path string) int {
					return s.runFile(path, ctx.String(traceFlag.Name))
				})
				return nil
			},
		},
		{
			Name:  "repl",
			Usage: "start an interactive session",
			Action: func(ctx *cli.Context) error {
				code = s.repl()
				return nil
			},
		},
		{
			Name:      "check",
			Usage:     "report syntax errors and static problems without running",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{jsonFlag},
			Action: func(ctx *cli.Context) error {
				code = s.withFile(ctx, func(path string) int {
					return s.checkFile(path, ctx.Bool(jsonFlag.Name))
				})
				return nil
			},
		},
		{
			Name:      "fmt",
			Usage:     "print a program in canonical form",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{writeFlag},
			Action: func(ctx *cli.Context) error {
				code = s.withFile(ctx, func(path string) int {
					return s.formatFile(path, ctx.Bool("write"))
				})
				return nil
			},
		},
		{
			Name:      "tokens",
			Usage:     "list the tokens of a program",
			ArgsUsage: "FILE",
			Action: func(ctx *cli.Context) error {
				code = s.withFile(ctx, s.tokensFile)
				return nil
			},
		},
		{
			Name:      "ast",
			Usage:     "print the syntax tree of a program",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{rawFlag},
			Action: func(ctx *cli.Context) error {
				code = s.withFile(ctx, func(path string) int {
					return s.astFile(path, ctx.Bool(rawFlag.Name))
				})
				return nil
			},
		},
		{
			Name:      "trace",
			Usage:     "summarize an NDJSON trace file",
			ArgsUsage: "FILE.jsonl",
			Flags:     []cli.Flag{textFlag},
			Action: func(ctx *cli.Context) error {
				code = s.withFile(ctx, func(path string) int {
					return s.traceSummary(path, ctx.Bool(textFlag.Name))
				})
				return nil
			},
		},
		{
			Name:      "help",
			Usage:     "show the quick reference or a topic",
			ArgsUsage: "[TOPIC]",
			Action: func(ctx *cli.Context) error {
				code = s.help(ctx.Args().First())
				return nil
			},
		},
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintln(stderr, s.errorText("error: "+err.Error()))
		return exitUsage
	}
	return code
}

// session carries the resolved settings shared by every command.
type session struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
	color  bool
}

func (s *session) setup(ctx *cli.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(ctx.GlobalString(configFlag.Name), wd)
	if err != nil {
		return err
	}
	if mode := ctx.GlobalString(colorFlag.Name); mode != "" {
		cfg.Color = mode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	s.cfg = cfg

	level := slog.LevelWarn
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if ctx.GlobalBool(verboseFlag.Name) {
		level = slog.LevelDebug
	}
	s.logger = slog.New(slog.NewTextHandler(s.stderr, &slog.HandlerOptions{Level: level}))
	s.color = useColor(cfg.Color, s.stderr)

	s.logger.Debug("configuration loaded", "source", cfg.Source, "color", s.color)
	return nil
}

// withFile runs fn on the command's single FILE argument.
func (s *session) withFile(ctx *cli.Context, fn func(path string) int) int {
	if ctx.NArg() != 1 {
		fmt.Fprintf(s.stderr, "usage: cook %s %s\n", ctx.Command.Name, ctx.Command.ArgsUsage)
		return exitUsage
	}
	return fn(ctx.Args().First())
}

func (s *session) readSource(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(s.stderr, s.errorText(fmt.Sprintf("cannot read %s: %s", path, unwrapPathError(err))))
		return "", false
	}
	return string(data), true
}

func unwrapPathError(err error) string {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err.Error()
	}
	return strings.TrimSpace(err.Error())
}

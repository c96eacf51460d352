package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/thomasrohde/cookbook/internal/testutil"
	"github.com/thomasrohde/cookbook/pkg/diagnostics"
	"github.com/thomasrohde/cookbook/pkg/evaluator"
	"github.com/thomasrohde/cookbook/pkg/runtime"
)

// outcome is what the CLI would print and exit with for a scenario.
type outcome struct {
	exitCode int
	stdout   string
	stderr   string
	diags    []diagnostics.Diagnostic
}

func TestConformance(t *testing.T) {
	files, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no scenarios found under %s", testutil.ScenariosDir)
	}

	for _, file := range files {
		scenario, err := testutil.LoadScenario(file)
		if err != nil {
			t.Fatalf("failed to load scenario: %v", err)
		}
		t.Run(scenario.Name, func(t *testing.T) {
			filename := scenario.Name + ".cook"

			var got outcome
			switch scenario.Cmd {
			case "run":
				got = runScenario(scenario.Source, filename)
			case "check":
				got = checkScenario(scenario.Source, filename)
			case "fmt":
				got = fmtScenario(scenario.Source, filename)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd)
			}
			checkExpectations(t, got, scenario)
		})
	}
}

func runScenario(source, filename string) outcome {
	var stdout bytes.Buffer
	rt := runtime.New(runtime.WithStdout(&stdout), runtime.WithRunID("conformance"))
	res, err := rt.Run(source, filename)

	diags := append([]diagnostics.Diagnostic(nil), res.Diagnostics...)
	var rerr *evaluator.RuntimeError
	if errors.As(err, &rerr) {
		diags = append(diags, rerr.Diagnostic())
	}
	return outcome{
		exitCode: runtime.ExitCode(res, err),
		stdout:   stdout.String(),
		stderr:   formatStderr(diags),
		diags:    diags,
	}
}

func checkScenario(source, filename string) outcome {
	diags := runtime.New().Check(source, filename)
	exit := runtime.ExitOK
	if diagnostics.HasErrors(diags) {
		exit = runtime.ExitSyntax
	}
	return outcome{exitCode: exit, stderr: formatStderr(diags), diags: diags}
}

func fmtScenario(source, filename string) outcome {
	out, err := runtime.New().Format(source, filename)
	var derr *runtime.DiagnosticError
	if errors.As(err, &derr) {
		return outcome{exitCode: runtime.ExitSyntax, stderr: formatStderr(derr.Diagnostics), diags: derr.Diagnostics}
	}
	return outcome{stdout: out}
}

func formatStderr(diags []diagnostics.Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	return diagnostics.FormatDiagnostics(diags, true) + "\n"
}

func checkExpectations(t *testing.T, got outcome, scenario *testutil.Scenario) {
	t.Helper()
	want := scenario.Expect

	if got.exitCode != want.ExitCode {
		t.Errorf("exit code: got %d, want %d\nstderr:\n%s", got.exitCode, want.ExitCode, got.stderr)
	}
	if want.Stdout != nil && got.stdout != *want.Stdout {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", got.stdout, *want.Stdout)
	}
	for _, s := range want.StdoutContains {
		if !strings.Contains(got.stdout, s) {
			t.Errorf("stdout should contain %q, got: %q", s, got.stdout)
		}
	}
	if want.Stderr != nil && got.stderr != *want.Stderr {
		t.Errorf("stderr:\n  got:  %q\n  want: %q", got.stderr, *want.Stderr)
	}
	for _, s := range want.StderrContains {
		if !strings.Contains(got.stderr, s) {
			t.Errorf("stderr should contain %q, got: %q", s, got.stderr)
		}
	}
	for _, expected := range want.Diagnostics {
		if !hasDiag(got.diags, expected) {
			t.Errorf("diagnostic not found: %+v\nstderr:\n%s", expected, got.stderr)
		}
	}
}

func hasDiag(diags []diagnostics.Diagnostic, want testutil.ExpectedDiag) bool {
	for _, d := range diags {
		if d.Code != want.Code {
			continue
		}
		if want.Line != 0 && d.Line() != want.Line {
			continue
		}
		if want.Message != "" && d.Message != want.Message {
			continue
		}
		return true
	}
	return false
}

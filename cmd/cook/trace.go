package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/thomasrohde/cookbook/pkg/evaluator"
)

// traceWriter appends trace events to a file, one JSON object per line.
type traceWriter struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
	err error
}

func newTraceWriter(path string) (*traceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create trace file: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &traceWriter{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write records one event. The first failure is kept and reported by Close.
func (tw *traceWriter) Write(ev evaluator.TraceEvent) {
	if tw.err != nil {
		return
	}
	tw.err = tw.enc.Encode(ev)
}

func (tw *traceWriter) Close() error {
	if err := tw.buf.Flush(); err != nil && tw.err == nil {
		tw.err = err
	}
	if err := tw.f.Close(); err != nil && tw.err == nil {
		tw.err = err
	}
	if tw.err != nil {
		return fmt.Errorf("writing trace: %w", tw.err)
	}
	return nil
}

// TraceSummary aggregates one trace file.
type TraceSummary struct {
	RunID       string         `json:"runId"`
	Runs        int            `json:"runs"`
	TotalEvents int            `json:"totalEvents"`
	Statements  int            `json:"statements"`
	Calls       int            `json:"calls"`
	CallsByName map[string]int `json:"callsByName"`
	StartTime   string         `json:"startTime,omitempty"`
	EndTime     string         `json:"endTime,omitempty"`
	DurationMs  float64        `json:"durationMs"`
	Invalid     int            `json:"invalidLines,omitempty"`
}

func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{CallsByName: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event evaluator.TraceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			summary.Invalid++
			continue
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case evaluator.TraceRunStart:
			summary.Runs++
			if summary.StartTime == "" {
				summary.StartTime = event.Timestamp
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.Timestamp
		case evaluator.TraceStmtStart:
			summary.Statements++
		case evaluator.TraceFnCallStart:
			summary.Calls++
			if name := event.Data["fn"]; name != "" {
				summary.CallsByName[name]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := time.Parse(time.RFC3339Nano, summary.StartTime)
		end, err2 := time.Parse(time.RFC3339Nano, summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}
	return summary, nil
}

func (s *session) traceSummary(path string, text bool) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(s.stderr, s.errorText(fmt.Sprintf("cannot read %s: %s", path, unwrapPathError(err))))
		return exitUsage
	}
	defer f.Close()

	summary, err := computeTraceSummary(f)
	if err != nil {
		fmt.Fprintln(s.stderr, s.errorText(fmt.Sprintf("reading trace: %s", err)))
		return exitUsage
	}

	if !text {
		if err := writeJSON(s.stdout, summary); err != nil {
			return exitUsage
		}
		return exitOK
	}
	printTraceSummaryText(s.stdout, summary)
	return exitOK
}

func printTraceSummaryText(w io.Writer, summary *TraceSummary) {
	fmt.Fprintf(w, "Run:        %s\n", summary.RunID)
	fmt.Fprintf(w, "Events:     %d\n", summary.TotalEvents)
	fmt.Fprintf(w, "Statements: %d\n", summary.Statements)
	fmt.Fprintf(w, "Calls:      %d\n", summary.Calls)
	fmt.Fprintf(w, "Duration:   %.3fms\n", summary.DurationMs)
	if summary.Invalid > 0 {
		fmt.Fprintf(w, "Skipped:    %d invalid lines\n", summary.Invalid)
	}
	if len(summary.CallsByName) == 0 {
		return
	}

	names := make([]string, 0, len(summary.CallsByName))
	for name := range summary.CallsByName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := summary.CallsByName[names[i]], summary.CallsByName[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Recipe", "Calls"})
	for _, name := range names {
		table.Append([]string{name, strconv.Itoa(summary.CallsByName[name])})
	}
	table.Render()
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"ddsforge/internal/preflight"
)

// checkState is the verdict column of `ddsforge check`.
type checkState int

const (
	checkPass checkState = iota
	checkFail
	checkSkip
	checkNote
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

type checkLine struct {
	label  string
	state  checkState
	detail string
}

type checkSection struct {
	title string
	lines []checkLine
}

func checkLineFromResult(r preflight.Result) checkLine {
	state := checkPass
	if !r.Passed {
		state = checkFail
	}
	return checkLine{label: r.Name, state: state, detail: r.Detail}
}

func (s checkState) marker() string {
	switch s {
	case checkPass:
		return "pass"
	case checkFail:
		return "FAIL"
	case checkSkip:
		return "skip"
	default:
		return "note"
	}
}

func (s checkState) color() string {
	switch s {
	case checkPass:
		return ansiGreen
	case checkFail:
		return ansiRed
	case checkSkip:
		return ansiYellow
	default:
		return ansiCyan
	}
}

// renderCheckReport lays out every section with one label column sized to the
// longest label in the report.
func renderCheckReport(w io.Writer, sections []checkSection, colorize bool) {
	width := 0
	for _, section := range sections {
		for _, line := range section.lines {
			width = max(width, len(line.label))
		}
	}
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, section.title)
		fmt.Fprintln(w, strings.Repeat("-", len(section.title)))
		for _, line := range section.lines {
			marker := line.state.marker()
			if colorize {
				marker = line.state.color() + marker + ansiReset
			}
			row := fmt.Sprintf("%s  %-*s  %s", marker, width, line.label, line.detail)
			fmt.Fprintln(w, strings.TrimRight(row, " "))
		}
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

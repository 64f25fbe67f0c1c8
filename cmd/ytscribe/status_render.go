package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// statusKind selects the label and color of a rendered status line.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
)

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	}
	return "INFO"
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return colorGreen
	case statusWarn:
		return colorYellow
	case statusError:
		return colorRed
	}
	return colorBlue
}

// renderStatusLine prints an indented "Label: [KIND] message" line, padding
// the label so values line up within a section.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	value := "[" + kind.label() + "]"
	if message != "" {
		value += " " + message
	}
	line := fmt.Sprintf("  %-20s %s", label+":", value)
	if colorize {
		line = kind.color() + line + colorReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	if colorize {
		heading = colorBlue + heading + colorReset
		rule = colorBlue + rule + colorReset
	}
	return []string{heading, rule}
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

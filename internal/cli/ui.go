package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dukerupert/basket/internal/groups"
	"github.com/dukerupert/basket/internal/history"
	"github.com/dukerupert/basket/internal/listsync"
	"github.com/dukerupert/basket/internal/remote"
)

var (
	successColor = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	headerColor  = color.New(color.FgMagenta, color.Bold)
	codeColor    = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
)

type printer struct {
	out io.Writer
}

func (p printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p printer) success(format string, args ...any) {
	successColor.Fprintf(p.out, format+"\n", args...)
}

func (p printer) header(format string, args ...any) {
	headerColor.Fprintf(p.out, format+"\n", args...)
}

// hint maps well-known errors to a message telling the user what to do next.
func hint(err error) string {
	switch {
	case errors.Is(err, listsync.ErrNoGroup), errors.Is(err, groups.ErrNoGroup), errors.Is(err, history.ErrNoGroup):
		return "no active group; run `basket group create <name>` or `basket group join <code>`"
	case errors.Is(err, groups.ErrGroupNotFound):
		return "no group with that code"
	case errors.Is(err, listsync.ErrItemNotFound):
		return "no such item; run `basket list` to see item numbers"
	case errors.Is(err, listsync.ErrNotConfirmed), errors.Is(err, groups.ErrNotConfirmed):
		return "cancelled"
	case errors.Is(err, remote.ErrNotFound):
		return "not found on server: " + err.Error()
	}
	return err.Error()
}

func printError(w io.Writer, err error) {
	failColor.Fprintf(w, "error: %s\n", hint(err))
}

// prompter asks yes/no questions on in, or answers yes when assumeYes is set.
type prompter struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func (p *prompter) confirm(prompt string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

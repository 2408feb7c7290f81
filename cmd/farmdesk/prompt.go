package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers line by line. When in is a terminal, secrets
// are read without echo.
type prompter struct {
	in  *bufio.Reader
	out io.Writer

	// fd is the terminal file descriptor, or -1 when input is not a
	// terminal.
	fd int
}

func newTerminalPrompter(in *os.File, out io.Writer) *prompter {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}

	return &prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// ask prints label and returns the trimmed answer. An empty answer
// yields def.
func (p *prompter) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}

	return line, nil
}

// secret prints label and reads an answer without echo.
func (p *prompter) secret(label string) (string, error) {
	if p.fd < 0 {
		return p.ask(label, "")
	}

	fmt.Fprintf(p.out, "%s: ", label)

	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)

	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}

	return string(b), nil
}

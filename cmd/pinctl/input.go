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

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

// prompter reads PINs without echo on a terminal and plain lines otherwise.
type prompter struct {
	reader   *bufio.Reader
	out      io.Writer
	fd       int
	terminal bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{reader: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.terminal = true
	}
	return p
}

func (p *prompter) pin(prompt string) (string, error) {
	if !p.terminal {
		return p.line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	b, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read pin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (p *prompter) newPIN() (string, string, error) {
	pinValue, err := p.pin("New PIN: ")
	if err != nil {
		return "", "", err
	}
	confirm, err := p.pin("Confirm PIN: ")
	if err != nil {
		return "", "", err
	}
	return pinValue, confirm, nil
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.reader.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && s != "":
	case errors.Is(err, io.EOF):
		return "", errors.New("no input")
	default:
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

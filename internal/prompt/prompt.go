// Package prompt implements line-oriented console input.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Console reads answers from in and writes prompts and messages to out.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewConsole creates a Console. fd is the terminal used for password input.
func NewConsole(in io.Reader, out io.Writer, fd int) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
		fd:  fd,
	}
}

// Prompt prints label and returns the next input line without its line
// ending. Other whitespace is kept so that validators see the raw value. A
// final line without a newline is returned before io.EOF is reported.
func (c *Console) Prompt(label string) (string, error) {
	if _, err := fmt.Fprint(c.out, label); err != nil {
		return "", err
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Reject prints a validation message.
func (c *Console) Reject(message string) {
	fmt.Fprintln(c.out, message)
}

// Password prints label and reads a secret from the terminal without echo.
func (c *Console) Password(label string) (string, error) {
	if _, err := fmt.Fprint(c.out, label); err != nil {
		return "", err
	}
	pw, err := readPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

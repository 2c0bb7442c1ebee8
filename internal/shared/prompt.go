package shared

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirm asks a yes/no question on out and reads the answer from in.
//
// When in is an [os.File] that is not a terminal the question cannot be answered
// interactively and [ErrCancelled] is returned, so scripted deletes must opt in explicitly.
func Confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, fmt.Errorf("%w: confirmation requires a terminal", ErrCancelled)
	}

	if _, err := fmt.Fprintf(out, "%s [y/N] ", prompt); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptSecret reads a secret from the terminal without echoing it.
// Falls back to a plain read when stdin is not a terminal, e.g. when
// the value is piped in.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}

	var s string
	if _, err := fmt.Fscanln(os.Stdin, &s); err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return s, nil
}

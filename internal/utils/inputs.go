package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks a yes/no question until it gets an answer. End of input
// counts as no.
func Confirm(prompt string, reader io.Reader, writer io.Writer) bool {
	scanner := bufio.NewScanner(reader)

	for {
		_, _ = fmt.Fprintf(writer, "%s [y/N]: ", prompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(writer)
			return false
		}

		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		}
	}
}

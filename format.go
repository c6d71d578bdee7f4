package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// renderJSON writes a response body to w. Interactive terminals get indented
// output; pipes and the --json flag get the compact form for machine
// consumption.
func renderJSON(w io.Writer, raw json.RawMessage) error {
	if flagJSON || !stdoutIsTerminal() {
		_, err := fmt.Fprintln(w, string(raw))

		return err
	}

	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	_, err = fmt.Fprintln(w, string(pretty))

	return err
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

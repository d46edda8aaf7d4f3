package utils

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether the process can run interactive Bubble Tea
// programs: stdout must be a terminal and /dev/tty must be openable.
func IsTTY() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	tty, err := os.Open("/dev/tty")
	if err != nil {
		return false
	}
	defer tty.Close()

	return true
}

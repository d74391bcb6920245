//go:build unix

package main

import (
	"os"
	"syscall"
)

// SIGUSR1 toggles pause.
var pauseSignals = []os.Signal{syscall.SIGUSR1}

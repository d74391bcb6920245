//go:build !unix

package main

import "os"

var pauseSignals []os.Signal

package main

import (
	"os"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger(progName)

const logFormat = "%{time:15:04:05.000} %{module} %{level:.4s} %{message}"

func startLogging(debug bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(logFormat))
	leveled := logging.AddModuleLevel(formatted)
	if debug {
		leveled.SetLevel(logging.DEBUG, "")
	} else {
		leveled.SetLevel(logging.INFO, "")
	}
	logging.SetBackend(leveled)
}

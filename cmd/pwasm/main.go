// Command pwasm decodes, validates, and runs WebAssembly binaries using the
// pwasm runtime.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	log := newLogger()
	root := newRootCmd(log)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}

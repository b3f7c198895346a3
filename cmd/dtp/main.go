// Package main is the dtp command: the talent assessment API server and its maintenance tasks.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes.
const (
	exitError   = 1
	exitRestart = 3 // settings changed, the supervisor should start us again
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, errSettingsChanged) {
			os.Exit(exitRestart)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
}

//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyResume delivers SIGCONT, sent when a stopped (Ctrl-Z) process is
// continued.
func notifyResume(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGCONT)
}

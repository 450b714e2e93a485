//go:build windows

package main

import "os"

// Windows has no job-control stop/continue signal.
func notifyResume(chan<- os.Signal) {}

// Package main is the entry point for the smashcoach CLI tool, which turns
// per-frame match telemetry readings into stats and coaching reports.
package main

import "github.com/pable/go-smash-coach/cmd"

func main() {
	cmd.Execute()
}

// Package main is the entry point for the GitHub profile dashboard proxy.
//
// MAIN PACKAGE IN GO:
// main should stay minimal. Configuration, logging, wiring and the server
// loop all live in internal/ packages; this file only hands control to the
// command tree in internal/cli.
//
// Usage:
//
//	server                      # same as `server serve`
//	server serve --config dashboard.yaml
//	server fetch octocat --summary
package main

import "github.com/sakif/gh-profile-dashboard/internal/cli"

func main() {
	cli.Execute()
}

// Package main is the entry point for the cscoach CLI tool, which parses CS2
// demo files, rates every player and coaches them on the result.
package main

import "github.com/pable/cs-coach/cmd"

func main() {
	cmd.Execute()
}

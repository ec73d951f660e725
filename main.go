// Package main is the entry point for the taptree CLI.
package main

import "taptree.dev/pkg/taptree/cmd"

func main() {
	cmd.Execute()
}

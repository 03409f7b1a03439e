// Package main is the entry point for the quill CLI.
package main

import "quill.dev/pkg/quill/cmd"

func main() {
	cmd.Execute()
}

// Package main is the entrypoint for the TaskFlow terminal client.
package main

import "github.com/nhle/taskflow/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}

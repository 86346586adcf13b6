package main

import "github.com/mrlokans/matjip/internal/cli"

// Version information - set at build time via ldflags
var Version = "dev"

func main() {
	cli.Execute(Version)
}

package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/m3-catalog/cmd/catalog-api/cli"
)

var (
	version = "0.1.0-dev"
	commit  = "main"
)

// @title M3 Catalog API
// @version 0.1.0
// @description Media tagging and hierarchy catalog
// @BasePath /api/v1
// @schemes http

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{Version: version, Commit: commit})
	root.AddCommand(cli.NewServeCommand())
	root.AddCommand(cli.NewResetCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

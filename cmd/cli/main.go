package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/learnassist/internal/buildinfo"
	"github.com/dmitrijs2005/learnassist/internal/client/cli"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		buildinfo.PrintBuildData(os.Stdout)
		return
	}
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/learnassist/internal/buildinfo"
	"github.com/dmitrijs2005/learnassist/internal/server"
	"github.com/dmitrijs2005/learnassist/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runErr := app.Run(ctx)
	if err := app.Close(context.Background()); err != nil {
		log.Printf("close: %v", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/dmitrijs2005/learnassist/internal/server"
	"github.com/dmitrijs2005/learnassist/internal/server/config"

	lambdax "github.com/dmitrijs2005/learnassist/internal/server/lambda"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	lambda.Start(lambdax.NewAdapter(app.Handler()).Handle)
}

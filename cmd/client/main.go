package main

import (
	"context"
	"log"
	"os"

	"github.com/romcom/romcom-auth/internal/client/cli"
	"github.com/romcom/romcom-auth/internal/client/config"
)

func main() {

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())

}

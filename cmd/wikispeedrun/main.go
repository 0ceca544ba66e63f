package main

import (
	"context"
	"log"

	"github.com/DedFishy/WikiSpeedrun/internal/app"
)

func main() {
	if err := app.Run(context.Background(), app.ConfigFromEnv()); err != nil {
		log.Fatalf("%v", err)
	}
}

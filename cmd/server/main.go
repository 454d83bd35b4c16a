package main

import (
	"context"
	"log"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/krishivue/agri-api/internal/cli"
	"github.com/krishivue/agri-api/internal/config"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	root := cli.NewRootCmd(cfg)
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

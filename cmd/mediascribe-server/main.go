package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mediascribe-server-go/internal/bootstrap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := bootstrap.Run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "mediascribe-server failed: %v\n", err)
		os.Exit(1)
	}
}

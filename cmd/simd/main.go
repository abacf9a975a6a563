package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"agentmind/core/internal/app"
)

func main() {
	var cfg app.Config
	flag.StringVar(&cfg.Addr, "addr", "", "listen address (default :8080)")
	flag.IntVar(&cfg.TickRate, "tick-rate", 0, "simulation ticks per second (default 15)")
	flag.StringVar(&cfg.AssetPath, "nav-asset", "", "path to the persisted navigation asset")
	flag.StringVar(&cfg.BehaviorDir, "behavior-dir", "", "directory of extra behavior configs")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

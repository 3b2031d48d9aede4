package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/richardliu001/payments-engine/internal/config"
	"github.com/richardliu001/payments-engine/internal/engine"
	"github.com/richardliu001/payments-engine/internal/logger"
)

func main() {
	cfgPath := flag.String("config", "", "optional yaml config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: engine [-config path] <transactions.csv>")
		os.Exit(1)
	}

	// 1. load config
	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}

	// 2. init logger (stderr; stdout carries the report)
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. open input
	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()

	// 4. fold and report
	eng := engine.New(cfg, log)
	if err := eng.Run(f, os.Stdout); err != nil {
		log.Fatalf("process transactions: %v", err)
	}
}

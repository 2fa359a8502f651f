package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.mau.fi/util/exerrors"
	"go.mau.fi/util/exzerolog"

	shrinker "go.hasen.dev/asset_shrinker"
)

func main() {
	var opts shrinker.Options
	f := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	shrinker.RegisterFlags(f, &opts)
	_ = f.Parse(os.Args[1:])

	cfg, err := shrinker.LoadConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := exerrors.Must(cfg.Logging.Compile())
	exzerolog.SetupDefaults(log)

	processor, err := shrinker.InitProcessorData(opts, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(log.WithContext(context.Background()), os.Interrupt)
	defer stop()

	stats := shrinker.DoProcess(ctx, processor)
	if ctx.Err() != nil || !stats.AllSucceeded() {
		stop()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exerrors"

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
	processor, err := shrinker.InitProcessorData(opts, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var tui shrinker.Tui
	tui.Processor = processor
	exerrors.PanicIfNotNil(tui.Init())

	minLevel := zerolog.InfoLevel
	if cfg.Logging.MinLevel != nil {
		minLevel = *cfg.Logging.MinLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: &tui, NoColor: true, TimeFormat: time.TimeOnly}).
		Level(minLevel).
		With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(log.WithContext(context.Background()))
	go func() {
		stats := shrinker.StartProcessing(ctx, processor, &tui)
		tui.Finish(stats)
	}()
	tui.Loop()
	cancel()
	tui.Close()
	os.Exit(tui.ExitCode())
}

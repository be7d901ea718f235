package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/minigo/board"
	"github.com/domino14/minigo/bot"
	"github.com/domino14/minigo/config"
)

const (
	GracefulShutdownTimeout = 20 * time.Second
)

// ask sends one request to a running bot and prints the reply.
func ask(ctx context.Context, cfg *config.Config, arg string) error {
	req := bot.Request{Position: arg}
	if n, err := strconv.Atoi(arg); err == nil {
		req = bot.Request{N: n}
	} else if _, err := board.Parse(arg); err != nil {
		return err
	}
	nc, err := bot.Connect(ctx, cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()
	resp, err := bot.NewClient(nc, cfg.GetString(config.ConfigNatsSubject)).Request(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("N=%d : [%s] (%.4gs)\n", resp.N, resp.Result, resp.ElapsedSec)
	return nil
}

func main() {
	cfg := config.DefaultConfig()
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(args) == 2 && args[0] == "ask" {
		if err := ask(ctx, cfg, args[1]); err != nil {
			log.Error().Err(err).Msg("ask-failed")
			os.Exit(1)
		}
		return
	}

	b := bot.NewBot(cfg)
	done := make(chan error, 1)
	go func() {
		done <- bot.Main(ctx, cfg.GetString(config.ConfigNatsSubject), b)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		select {
		case err = <-done:
		case <-time.After(GracefulShutdownTimeout):
			log.Warn().Msg("timed-out-draining")
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("bot-exited")
		os.Exit(1)
	}
	log.Info().Msg("server gracefully shutting down")
}

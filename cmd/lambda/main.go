package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/minigo/bot"
	"github.com/domino14/minigo/config"
)

var cfg *config.Config
var nc *nats.Conn

// LambdaEvent is a bot request, plus an optional NATS subject on which the
// response is also published.
type LambdaEvent struct {
	bot.Request
	ReplyChannel string `json:"reply_channel,omitempty"`
}

func HandleRequest(ctx context.Context, evt LambdaEvent) (*bot.Response, error) {
	resp := bot.NewBot(cfg).Analyze(evt.Request)
	logger := log.With().Str("id", resp.ID).Logger()
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	if evt.ReplyChannel != "" && nc != nil {
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("analysis-success-sending-via-nats")
		err = retry.Do(
			func() error {
				// We're just waiting for an acknowledgement. The actual
				// data doesn't matter.
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.Context(ctx),
			retry.Attempts(5),
			retry.DelayType(retry.BackOffDelay),
			retry.OnRetry(func(n uint, err error) {
				logger.Err(err).Uint("n", n).Msg("did-not-receive-ack-try-again")
			}),
		)
		if err != nil {
			logger.Err(err).Msg("reply-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return resp, nil
}

func main() {
	cfg = config.DefaultConfig()
	if _, err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var err error
	nc, err = bot.Connect(context.Background(), cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}

package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/minigo/board"
	"github.com/domino14/minigo/cache"
	"github.com/domino14/minigo/config"
	"github.com/domino14/minigo/solver"
)

var errEmptyRequest = errors.New("request needs n or position")

// Request asks for either the first-move map of an empty board of N cells,
// or the verdict of every move in Position.
type Request struct {
	ID       string `json:"id,omitempty"`
	N        int    `json:"n,omitempty"`
	Position string `json:"position,omitempty"`
}

type Response struct {
	ID         string  `json:"id"`
	N          int     `json:"n"`
	Result     string  `json:"result,omitempty"`
	ElapsedSec float64 `json:"elapsed_sec"`
	Error      string  `json:"error,omitempty"`
}

type Bot struct {
	config *config.Config
	maxN   int
}

func NewBot(cfg *config.Config) *Bot {
	return &Bot{config: cfg, maxN: cfg.GetInt(config.ConfigBotMaxN)}
}

func errorResponse(id, message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{ID: id, Error: msg}
}

// Handle decodes a JSON request and returns the JSON response. Failures are
// reported in the response's error field.
func (bot *Bot) Handle(data []byte) []byte {
	resp := bot.handle(data)
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen, ideally, but we need to do something sensible here.
		return []byte(`{"error":"could not encode response"}`)
	}
	return out
}

func (bot *Bot) handle(data []byte) *Response {
	req := Request{}
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(uuid.NewString(), "Could not parse request", err)
	}
	return bot.Analyze(req)
}

// Analyze answers a decoded request.
func (bot *Bot) Analyze(req Request) *Response {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := log.With().Str("id", id).Logger()

	var resp *Response
	var err error
	switch {
	case req.Position != "":
		var pos board.Position
		pos, err = board.Parse(req.Position)
		if err != nil {
			return errorResponse(id, "Could not parse position", err)
		}
		// search cost grows with the empty cells, not the board length.
		if empty := bits.OnesCount64(pos.Empty()); empty > bot.maxN {
			return errorResponse(id, "Board too large",
				fmt.Errorf("%d empty cells, this bot allows at most %d", empty, bot.maxN))
		}
		resp = &Response{ID: id, N: pos.N}
		tstart := time.Now()
		err = cache.WithSolver(bot.config, func(s *solver.Solver) error {
			outcomes, err := s.AnalyzeMoves(pos)
			resp.Result = solver.FormatOutcomes(outcomes)
			return err
		})
		resp.ElapsedSec = time.Since(tstart).Seconds()
	case req.N != 0:
		if req.N > bot.maxN {
			return errorResponse(id, "Board too large",
				fmt.Errorf("n=%d, this bot allows at most %d", req.N, bot.maxN))
		}
		resp = &Response{ID: id, N: req.N}
		err = cache.WithSolver(bot.config, func(s *solver.Solver) error {
			return s.AnalyzeRange(req.N, req.N, func(a solver.Analysis) error {
				resp.Result = solver.FormatOutcomes(a.Outcomes)
				resp.ElapsedSec = a.Elapsed.Seconds()
				return nil
			})
		})
	default:
		return errorResponse(id, "Bad request", errEmptyRequest)
	}
	if err != nil {
		return errorResponse(id, "Could not analyze", err)
	}
	logger.Info().Int("n", resp.N).Str("result", resp.Result).
		Float64("sec", resp.ElapsedSec).Msg("analysis-response")
	return resp
}

// Connect dials NATS, retrying with backoff until ctx is done.
func Connect(ctx context.Context, url string) (*nats.Conn, error) {
	return retry.DoWithData(
		func() (*nats.Conn, error) {
			return nats.Connect(url, nats.Name("minigo-bot"))
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Err(err).Uint("n", n).Str("url", url).Msg("nats-connect-failed-retrying")
		}),
	)
}

// Main serves requests on channel until ctx is cancelled.
func Main(ctx context.Context, channel string, bot *Bot) error {
	nc, err := Connect(ctx, bot.config.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	// Simple Async Subscriber
	_, err = nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		if err := m.Respond(bot.Handle(m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("channel", channel).Msg("listening")

	<-ctx.Done()
	return nc.Drain()
}

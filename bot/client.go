package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const DefaultRequestTimeout = 5 * time.Minute

type Client struct {
	// NATS connection
	nc      *nats.Conn
	channel string
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{nc: nc, channel: channel}
}

// Request sends req to the bot and waits for its answer. A response with
// its error field set is returned as an error.
func (c *Client) Request(ctx context.Context, req Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}
	log.Debug().Str("channel", c.channel).RawJSON("req", data).Msg("sending-request")
	msg, err := c.nc.RequestWithContext(ctx, c.channel, data)
	if err != nil {
		return nil, err
	}
	resp := &Response{}
	if err := json.Unmarshal(msg.Data, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

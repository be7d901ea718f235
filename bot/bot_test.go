package bot

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/minigo/cache"
	"github.com/domino14/minigo/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testBot(t *testing.T) *Bot {
	t.Helper()
	cache.CreateGlobalSolverCache()
	cfg := config.DefaultConfig()
	if _, err := cfg.Load([]string{"--tt-size-power", "12", "--threads", "2", "--bot-max-n", "12"}); err != nil {
		t.Fatal(err)
	}
	return NewBot(cfg)
}

func handle(t *testing.T, b *Bot, req string) Response {
	t.Helper()
	resp := Response{}
	if err := json.Unmarshal(b.Handle([]byte(req)), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHandleEmptyBoard(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := handle(t, b, `{"n": 3, "id": "abc"}`)
	is.Equal(resp.Error, "")
	is.Equal(resp.ID, "abc")
	is.Equal(resp.N, 3)
	is.Equal(resp.Result, "rgr")

	resp = handle(t, b, `{"n": 1}`)
	is.Equal(resp.Result, "g")
	// generated ids are uuids.
	is.Equal(len(resp.ID), 36)
}

func TestHandlePosition(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := handle(t, b, `{"position": ".ox."}`)
	is.Equal(resp.Error, "")
	is.Equal(resp.N, 4)
	is.Equal(resp.Result, "gxxx")
}

func TestHandleErrors(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	cases := []string{
		`not json`,
		`{}`,
		`{"n": 13}`,
		`{"n": -2}`,
		`{"position": "x?o"}`,
		`{"position": "` + strings.Repeat(".", 30) + `"}`,
		`{"position": "x` + strings.Repeat(".", 13) + `o"}`,
		`{"position": "xo", "id": "q"}`,
	}
	for _, c := range cases {
		resp := handle(t, b, c)
		if c == cases[len(cases)-1] {
			// a full board is a valid position with no legal move.
			is.Equal(resp.Error, "")
			is.Equal(resp.Result, "xx")
			continue
		}
		is.True(resp.Error != "")
		is.Equal(resp.Result, "")
		is.True(resp.ID != "")
	}
}

func TestHandlePositionWithinLimit(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	// 20 cells, but only 12 of them empty.
	resp := handle(t, b, `{"position": "xoxoxoxo............"}`)
	is.Equal(resp.Error, "")
	is.Equal(resp.N, 20)
	is.Equal(len(resp.Result), 20)
	is.Equal(resp.Result[:8], "xxxxxxxx")
}

func TestRefusedPositionSaysWhy(t *testing.T) {
	is := is.New(t)
	b := testBot(t)
	resp := handle(t, b, `{"position": "`+strings.Repeat(".", 30)+`", "id": "big"}`)
	is.Equal(resp.ID, "big")
	is.True(strings.HasPrefix(resp.Error, "Board too large"))
	is.True(strings.Contains(resp.Error, "30 empty cells"))
}

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackrl/internal/randutil"
	"github.com/lox/blackjackrl/sdk/qlearn"
)

func newTestServer(t *testing.T, table *qlearn.Table) (*Server, *httptest.Server) {
	t.Helper()
	agent := qlearn.NewAgent(table, qlearn.DefaultHyperparameters(), randutil.New(7))
	s := New(agent, log.New(io.Discard))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func trainedTable() *qlearn.Table {
	table := qlearn.NewTable()
	table.SetValues(qlearn.Observe(12, 10, false), qlearn.Values{Stand: -0.6, Hit: -0.3})
	table.SetValues(qlearn.Observe(19, 10, false), qlearn.Values{Stand: 0.4, Hit: -0.7})
	return table
}

func decodeDecision(t *testing.T, resp *http.Response) DecideResponse {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out DecideResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDecideQuery(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, trainedTable())

	resp, err := http.Get(ts.URL + "/v1/decide?player_total=12&dealer_up_card=10")
	require.NoError(t, err)
	out := decodeDecision(t, resp)
	assert.Equal(t, "hit", out.Action)
	assert.Equal(t, -0.6, out.Stand)
	assert.Equal(t, -0.3, out.Hit)

	resp, err = http.Get(ts.URL + "/v1/decide?player_total=19&dealer_up_card=10&soft=false")
	require.NoError(t, err)
	assert.Equal(t, "stand", decodeDecision(t, resp).Action)
}

func TestDecideUntrainedStands(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/v1/decide?player_total=8&dealer_up_card=6")
	require.NoError(t, err)
	out := decodeDecision(t, resp)
	assert.Equal(t, "stand", out.Action)
	assert.Zero(t, out.Stand)
	assert.Zero(t, out.Hit)
}

func TestDecideBody(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, trainedTable())

	body, err := json.Marshal(DecideRequest{PlayerTotal: 12, DealerUpCard: 10})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/v1/decide", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "hit", decodeDecision(t, resp).Action)
}

func TestDecideRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, nil)

	paths := []string{
		"/v1/decide?player_total=22&dealer_up_card=10",
		"/v1/decide?player_total=3&dealer_up_card=10",
		"/v1/decide?player_total=12&dealer_up_card=1",
		"/v1/decide?player_total=12&dealer_up_card=12",
		"/v1/decide?player_total=abc&dealer_up_card=10",
		"/v1/decide?player_total=12",
		"/v1/decide?player_total=12&dealer_up_card=10&soft=maybe",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var out ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.NotEmpty(t, out.Message)
		})
	}

	resp, err := http.Post(ts.URL+"/v1/decide", "application/json", strings.NewReader(`{"player_total":`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTableStats(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, trainedTable())

	resp, err := http.Get(ts.URL + "/v1/table/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2, out.States)
	assert.True(t, out.Trained)
}

func TestDecideTrainingModeExplores(t *testing.T) {
	t.Parallel()
	table := trainedTable()
	agent := qlearn.NewAgent(table, qlearn.Hyperparameters{Alpha: 0.1, Gamma: 0.9, Epsilon: 1}, randutil.New(3))
	s := New(agent, log.New(io.Discard))

	seen := map[string]bool{}
	for range 64 {
		out, err := s.Decide(DecideRequest{PlayerTotal: 19, DealerUpCard: 10, Training: true})
		require.NoError(t, err)
		seen[out.Action] = true
	}
	assert.True(t, seen["hit"])
	assert.True(t, seen["stand"])
}

func TestWebSocketDecide(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, trainedTable())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(DecideRequest{PlayerTotal: 12, DealerUpCard: 10}))
	var out DecideResponse
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "hit", out.Action)
	assert.Equal(t, -0.3, out.Hit)

	require.NoError(t, conn.WriteJSON(DecideRequest{PlayerTotal: 30, DealerUpCard: 10}))
	var errResp ErrorResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, "invalid_state", errResp.Code)
}

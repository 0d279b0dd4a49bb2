package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/concierge"
	httpadapter "github.com/aretw0/concierge/pkg/adapters/http"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
	"github.com/aretw0/concierge/pkg/oracle/oracletest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...httpadapter.Option) *httptest.Server {
	t.Helper()
	a := dsl.CreateAgent("Clinic", "Books visits.")
	j := a.CreateJourney("Book a Visit", "Collects the reason for a visit.", "The patient wants a visit")
	reason := j.InitialState().TransitionToChat("What is the reason for your visit?").Target
	reason.TransitionToChat("Thanks, we will call you back.", dsl.When("The patient gives a reason"), dsl.SaveTo("reason")).Target.TransitionToEnd()
	agent, err := a.Build()
	require.NoError(t, err)

	stub := oracletest.New().
		SetFor("I need to see a doctor", "The patient wants a visit", true).
		True("The patient gives a reason")
	eng, err := concierge.New(agent, stub)
	require.NoError(t, err)

	srv := httptest.NewServer(httpadapter.NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func postTurn(t *testing.T, srv *httptest.Server, sessionID, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/sessions/"+sessionID+"/turns", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHandleTurn(t *testing.T) {
	srv := newServer(t)

	resp := postTurn(t, srv, "s1", `{"utterance": "I need to see a doctor"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[domain.TurnResult](t, resp)
	assert.Equal(t, "What is the reason for your visit?", res.Response)
	assert.True(t, res.Has(domain.EffectJourneyEntered))

	resp = postTurn(t, srv, "s1", `{"utterance": "My back hurts"}`)
	res = decode[domain.TurnResult](t, resp)
	assert.Equal(t, "Thanks, we will call you back.", res.Response)
	assert.True(t, res.Has(domain.EffectJourneyEnded))

	get, err := http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	defer get.Body.Close()
	sess := decode[domain.Session](t, get)
	assert.Equal(t, "s1", sess.SessionID)
	assert.Len(t, sess.History, 4)
}

func TestHandleTurn_BadRequests(t *testing.T) {
	srv := newServer(t)

	assert.Equal(t, http.StatusBadRequest, postTurn(t, srv, "s1", `{`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, postTurn(t, srv, "s1", `{"utterance": "  "}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, postTurn(t, srv, "s1", `{"utterance": "`+strings.Repeat("a", 70000)+`"}`).StatusCode)
}

func TestSessions_NotFoundAndReset(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/sessions/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	postTurn(t, srv, "s1", `{"utterance": "hello"}`)
	list, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	defer list.Body.Close()
	assert.Equal(t, map[string][]string{"sessions": {"s1"}}, decode[map[string][]string](t, list))

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/s1", nil)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	resp, err = http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAgentEndpoints(t *testing.T) {
	srv := newServer(t, httpadapter.WithVersion("v1.2.3\n"))

	resp, err := http.Get(srv.URL + "/agent")
	require.NoError(t, err)
	defer resp.Body.Close()
	agent := decode[map[string]any](t, resp)
	assert.Equal(t, "Clinic", agent["name"])

	g, err := http.Get(srv.URL + "/agent/graph")
	require.NoError(t, err)
	defer g.Body.Close()
	var sb strings.Builder
	_, _ = bufio.NewReader(g.Body).WriteTo(&sb)
	assert.True(t, strings.HasPrefix(sb.String(), "graph TD\n"))
	assert.Contains(t, sb.String(), `subgraph book_a_visit["Book a Visit"]`)

	info, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer info.Body.Close()
	assert.Equal(t, map[string]string{"app": "concierge-http", "agent": "Clinic", "version": "v1.2.3"}, decode[map[string]string](t, info))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := newServer(t, httpadapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestSubscribeEvents(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s1/events?watch=variables", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// The first turn binds no variable and is filtered out; the second saves the reason.
	postTurn(t, srv, "s1", `{"utterance": "I need to see a doctor"}`)
	postTurn(t, srv, "s1", `{"utterance": "My back hurts"}`)

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, "My back hurts", diff.Variables["reason"])
}

func TestStreamManager(t *testing.T) {
	sm := httpadapter.NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", []byte("hello"))
	sm.Broadcast("s2", []byte("ignored"))
	assert.Equal(t, []byte("hello"), <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	_, open := <-ch
	assert.False(t, open)
}

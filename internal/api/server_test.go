package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/config"
	"github.com/veritaslabs/veritas/internal/progress"
	memqueue "github.com/veritaslabs/veritas/internal/queue/memory"
	memstore "github.com/veritaslabs/veritas/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct {
	ids []string
	n   int
}

func (g *seqIDGen) NewID() (string, error) {
	if g.n >= len(g.ids) {
		return "overflow-id", nil
	}
	id := g.ids[g.n]
	g.n++
	return id, nil
}

type apiHarness struct {
	server *Server
	store  *memstore.Store
	queue  *memqueue.Queue
}

func newHarness(t *testing.T, mutate func(*config.Config)) *apiHarness {
	t.Helper()
	cfg := config.Config{}
	cfg.Server.TimeoutSeconds = 5
	cfg.Claim.MinLength = 20
	cfg.Stream.PollIntervalMs = 10
	cfg.Stream.HeartbeatSeconds = 60
	if mutate != nil {
		mutate(&cfg)
	}

	st := memstore.New(fixedClock{t: time.Unix(1700000000, 0)})
	q := memqueue.NewQueue(8)
	srv := NewServer(st, q, &seqIDGen{ids: []string{"job-1", "job-2"}},
		fixedClock{t: time.Unix(1700000000, 0)}, cfg, zap.NewNop())
	return &apiHarness{server: srv, store: st, queue: q}
}

func (h *apiHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitClaimAccepted(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/v1/claims", map[string]string{
		"claim": "The moon landing was staged in a Hollywood studio.",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "job-1", resp["job_id"])
	require.Equal(t, "QUEUED", resp["status"])

	// the job is visible immediately and the claim is on the queue
	status, err := h.store.Status(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, claims.StateQueued, status.State)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	item, err := h.queue.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "job-1", item.JobID)
	require.Contains(t, item.Claim, "moon landing")
}

func TestSubmitClaimTooShort(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/v1/claims", map[string]string{"claim": "too short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "at least 20 characters")
}

func TestSubmitClaimTrimsWhitespace(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	// nineteen characters once the padding is stripped
	rec := h.do(t, http.MethodPost, "/v1/claims", map[string]string{
		"claim": "   nineteen chars here   ",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitClaimInvalidJSON(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/claims", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitClaimQueueFull(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Server.TimeoutSeconds = 1
	})
	// saturate the queue so the enqueue times out
	for i := 0; i < 8; i++ {
		require.NoError(t, h.queue.Enqueue(context.Background(), claims.QueueItem{JobID: "filler", Claim: "x"}))
	}

	rec := h.do(t, http.MethodPost, "/v1/claims", map[string]string{
		"claim": "A claim long enough to pass validation easily.",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetStatusUnknownJob(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/v1/claims/nope/status", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStatusWithLogs(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.store.CreateJob(ctx, "job-9"))
	require.NoError(t, h.store.SetStatus(ctx, "job-9", claims.StateRunning, claims.StageResearch))
	require.NoError(t, h.store.AppendEvent(ctx, "job-9", progress.Event{
		JobID: "job-9", TS: time.Now(), Source: progress.SourcePipeline,
		Type: progress.TypeStart, Message: "verification started",
	}))

	rec := h.do(t, http.MethodGet, "/v1/claims/job-9/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status claims.StatusSnapshot `json:"status"`
		Logs   []progress.Event      `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, claims.StateRunning, resp.Status.State)
	require.Equal(t, claims.StageResearch, resp.Status.CurrentStage)
	require.Len(t, resp.Logs, 1)
	require.Equal(t, "verification started", resp.Logs[0].Message)
}

func TestGetResultLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	rec := h.do(t, http.MethodGet, "/v1/claims/job-7/result", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, h.store.CreateJob(ctx, "job-7"))
	rec = h.do(t, http.MethodGet, "/v1/claims/job-7/result", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	payload := []byte(`{"verdict":"FAKE","confidence":88}`)
	require.NoError(t, h.store.SetResult(ctx, "job-7", payload))
	rec = h.do(t, http.MethodGet, "/v1/claims/job-7/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, string(payload), rec.Body.String())
}

func TestGetStats(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.store.IncrCounter(ctx, "jobs_completed", 3))

	rec := h.do(t, http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var counters map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counters))
	require.Equal(t, "3", counters["jobs_completed"])
}

func TestHealthAndReadiness(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKey = "sekrit"
	})

	rec := h.do(t, http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// query-parameter fallback for tools that cannot set headers
	req = httptest.NewRequest(http.MethodGet, "/v1/stats?api_key=sekrit", nil)
	rec = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/healthz", nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStreamEmitsLogsThenDone(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.store.CreateJob(ctx, "job-s"))
	appendEvt := func(source string, typ progress.Type, msg string) {
		require.NoError(t, h.store.AppendEvent(ctx, "job-s", progress.Event{
			JobID: "job-s", TS: time.Now(), Source: source, Type: typ, Message: msg,
		}))
	}
	appendEvt(progress.SourcePipeline, progress.TypeStart, "verification started")
	appendEvt(progress.SourceNLP, progress.TypeEnd, "analysis complete")

	ts := httptest.NewServer(h.server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/claims/job-s/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// the terminal marker lands while the stream is already attached
	go func() {
		time.Sleep(50 * time.Millisecond)
		appendEvt(progress.SourcePipeline, progress.TypeEnd, "verification complete")
	}()

	var names []string
	var payloads []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			payloads = append(payloads, strings.TrimPrefix(line, "data: "))
		}
	}

	// three log frames then the done marker, in append order
	require.Equal(t, []string{"log", "log", "log", "done"}, names)

	var first progress.Event
	require.NoError(t, json.Unmarshal([]byte(payloads[0]), &first))
	require.Equal(t, "verification started", first.Message)

	var last progress.Event
	require.NoError(t, json.Unmarshal([]byte(payloads[2]), &last))
	require.True(t, last.Terminal())
	require.Contains(t, payloads[3], "job-s")
}

func TestStreamUnknownJobKeepsWaiting(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Stream.MaxLifetimeSeconds = 1
	})

	ts := httptest.NewServer(h.server.Handler())
	defer ts.Close()

	start := time.Now()
	resp, err := http.Get(ts.URL + "/v1/claims/ghost/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	// never a 404: the stream opens and waits until its lifetime bound
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Empty(t, body)
	require.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/api/handlers"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/brain"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/cooldown"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/marketdata"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/portfolio"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scanconfig"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scheduler"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/universe"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

// fakePipeline records requests and returns a canned tick
type fakePipeline struct {
	last    *contracts.TickResult
	reqs    []brain.TickRequest
	ctxErrs []error
}

func (p *fakePipeline) RunTick(ctx context.Context, req brain.TickRequest) *contracts.TickResult {
	p.reqs = append(p.reqs, req)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	at := time.Date(2024, 3, 12, 14, 30, 0, 0, time.UTC)
	sig := contracts.NewCandidate("c-1", "SOFI", at)
	sig.Tier = contracts.TierGold
	p.last = &contracts.TickResult{
		TickID:    "tick-1",
		Timestamp: at,
		Session:   contracts.SessionRegular,
		Signals:   []*contracts.CandidateSignal{sig},
	}
	return p.last
}

func (p *fakePipeline) LastTick() *contracts.TickResult { return p.last }

func (p *fakePipeline) Status() brain.MetricsSnapshot {
	return brain.MetricsSnapshot{ModulesLoaded: 3, TicksRun: int64(len(p.reqs))}
}

type testEnv struct {
	router    http.Handler
	pipeline  *fakePipeline
	cooldowns *cooldown.Registry
	orch      *brain.Orchestrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()
	p := &fakePipeline{}
	cds := cooldown.New(log)

	sched := scheduler.New(log)
	require.NoError(t, sched.AddJob(&scheduler.FuncJob{
		JobName: "noop",
		Spec:    "0 0 0 1 1 *",
		Fn:      func(context.Context) error { return nil },
	}))

	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheus(reg)
	sink.IncCounter(metrics.TicksTotal, "ok")

	pf := portfolio.NewStatic(contracts.PortfolioState{
		TotalValue: 100000,
		Positions:  []contracts.Position{{Symbol: "AAPL", Sector: "Technology", Value: 10000}},
	})

	market, err := marketdata.LoadFixture("../../config/fixtures/quotes.yaml")
	require.NoError(t, err)
	orch, err := brain.Build(scanconfig.Default(), brain.Providers{
		Universe: universe.NewSymbols("SOFI", "GME"),
		Market:   market,
	}, nil, brain.Options{}, log)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Ticks:     handlers.NewTickHandler(p, log),
		Signals:   handlers.NewSignalHandler(nil, p, log),
		Cooldowns: handlers.NewCooldownHandler(cds, log),
		Risk:      handlers.NewRiskHandler(risk.NewEngine(risk.DefaultConfig()), nil, pf, log),
		Portfolio: handlers.NewPortfolioHandler(pf, log),
		Scheduler: handlers.NewSchedulerHandler(sched, log),
		Modules:   handlers.NewModuleHandler(orch, log),
		Gatherer:  reg,
	}, log)

	return &testEnv{router: router, pipeline: p, cooldowns: cds, orch: orch}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTicks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("GET", "/api/ticks/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do("POST", "/api/ticks", `{"symbols":["SOFI"],"session":"premarket"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res contracts.TickResult
	decode(t, rec, &res)
	assert.Equal(t, "tick-1", res.TickID)
	require.Len(t, env.pipeline.reqs, 1)
	assert.Equal(t, contracts.SessionPremarket, env.pipeline.reqs[0].Session)

	rec = env.do("GET", "/api/ticks/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("GET", "/api/ticks/tick-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do("GET", "/api/ticks/other", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 빈 본문은 기본 요청
	rec = env.do("POST", "/api/ticks", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("GET", "/api/status", "")
	var st brain.MetricsSnapshot
	decode(t, rec, &st)
	assert.Equal(t, int64(2), st.TicksRun)
}

func TestTicks_OutlivesClientDisconnect(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("POST", "/api/ticks", strings.NewReader(`{}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.pipeline.ctxErrs, 1)
	assert.NoError(t, env.pipeline.ctxErrs[0])
}

func TestTicks_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad session", `{"session":"lunch"}`, http.StatusUnprocessableEntity},
		{"empty symbol", `{"symbols":[""]}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"foo":1}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do("POST", "/api/ticks", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Empty(t, env.pipeline.reqs)
		})
	}
}

func TestSignals_FromLatestTick(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/ticks", `{}`)

	rec := env.do("GET", "/api/signals?symbol=sofi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Source  string                       `json:"source"`
		Signals []*contracts.CandidateSignal `json:"signals"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "latest_tick", body.Source)
	require.Len(t, body.Signals, 1)

	rec = env.do("GET", "/api/signals?symbol=GME", "")
	decode(t, rec, &body)
	assert.Empty(t, body.Signals)
}

func TestCooldowns(t *testing.T) {
	env := newTestEnv(t)
	env.cooldowns.Set("SOFI", 30, "GOLD signal")

	rec := env.do("GET", "/api/cooldowns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = env.do("DELETE", "/api/cooldowns/sofi", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.cooldowns.IsActive("SOFI"))

	rec = env.do("DELETE", "/api/cooldowns/sofi", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskAssess(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/risk/assess", `{"symbol":"sofi","confidence":80,"volatility":0.4,"avg_volume":2000000,"spread":0.002}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ra contracts.RiskAssessment
	decode(t, rec, &ra)
	assert.Equal(t, "SOFI", ra.Symbol)
	assert.GreaterOrEqual(t, ra.Overall, 0.0)
	assert.LessOrEqual(t, ra.Overall, 1.0)
	assert.NotEmpty(t, ra.Level)

	rec = env.do("POST", "/api/risk/assess", `{"confidence":80}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var er handlers.ErrorResponse
	decode(t, rec, &er)
	require.NotEmpty(t, er.Details)
}

func TestPortfolio(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("GET", "/api/portfolio", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AAPL")

	rec = env.do("PUT", "/api/portfolio", `{"total_value":50000,"positions":[{"symbol":"GME","sector":"Retail","value":5000}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GME")

	// 노출이 총액 초과
	rec = env.do("PUT", "/api/portfolio", `{"total_value":100,"positions":[{"symbol":"GME","value":5000}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do("PUT", "/api/portfolio", `{"total_value":-1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestScheduler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("GET", "/api/scheduler/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"job_name":"noop"`)

	rec = env.do("POST", "/api/scheduler/jobs/noop/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res scheduler.JobResult
	decode(t, rec, &res)
	assert.True(t, res.Success)

	rec = env.do("POST", "/api/scheduler/jobs/missing/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduler_PauseResume(t *testing.T) {
	env := newTestEnv(t)

	jobs := func() []scheduler.JobStats {
		rec := env.do("GET", "/api/scheduler/jobs", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Jobs []scheduler.JobStats `json:"jobs"`
		}
		decode(t, rec, &body)
		require.Len(t, body.Jobs, 1)
		return body.Jobs
	}

	rec := env.do("POST", "/api/scheduler/jobs/noop/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"paused":true`)
	assert.True(t, jobs()[0].Paused)

	rec = env.do("POST", "/api/scheduler/jobs/noop/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, jobs()[0].Paused)

	rec = env.do("POST", "/api/scheduler/jobs/missing/pause", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do("POST", "/api/scheduler/jobs/missing/resume", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModules(t *testing.T) {
	env := newTestEnv(t)

	list := func() []brain.ModuleInfo {
		rec := env.do("GET", "/api/modules", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Count   int                `json:"count"`
			Modules []brain.ModuleInfo `json:"modules"`
		}
		decode(t, rec, &body)
		require.Equal(t, len(modules.Names()), body.Count)
		return body.Modules
	}

	for _, m := range list() {
		assert.True(t, m.Enabled, m.Name)
		assert.Equal(t, brain.ModuleNotRun, m.Status, m.Name)
	}

	rec := env.do("POST", "/api/modules/squeeze_potential/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info brain.ModuleInfo
	decode(t, rec, &info)
	assert.Equal(t, modules.NameSqueeze, info.Name)
	assert.False(t, info.Enabled)

	// 다음 틱은 새 모듈 집합 사용
	res := env.orch.RunTick(context.Background(), brain.TickRequest{Session: contracts.SessionRegular})
	require.NotEmpty(t, res.Stages)
	assert.Equal(t, len(modules.Names())-1, res.Stages[0].InputCount)

	for _, m := range list() {
		if m.Name == modules.NameSqueeze {
			assert.Equal(t, brain.ModuleDisabled, m.Status)
		} else {
			assert.Equal(t, brain.ModuleOK, m.Status, m.Name)
		}
	}

	rec = env.do("POST", "/api/modules/ghost/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stealth_ticks_total")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("OPTIONS", "/api/ticks", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

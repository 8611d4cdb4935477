package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/api"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/api/handlers"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/api/ws"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/brain"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/cooldown"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/data/repos"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/publish"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scheduler"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scheduler/jobs"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 스케줄러 시작",
	Long: `REST API 서버와 틱 스케줄러를 시작합니다.

이 명령어는:
- 스캔 파이프라인 조립 (config/scan.yaml)
- 틱 결과 싱크 연결 (websocket, postgres, kafka)
- 스케줄러 시작 (scan_tick, cooldown_sweep, universe_refresh)
- HTTP API 서버 시작

Endpoints:
  GET    /health
  POST   /api/ticks                     - 틱 즉시 실행
  GET    /api/ticks/latest              - 마지막 틱
  GET    /api/ticks/{id}                - 저장된 틱 요약
  GET    /api/status                    - 오케스트레이터 상태
  GET    /api/signals                   - 시그널 이력
  GET    /api/cooldowns                 - 활성 쿨다운
  DELETE /api/cooldowns/{symbol}        - 쿨다운 해제
  POST   /api/risk/assess               - 리스크 평가
  GET    /api/portfolio                 - 포트폴리오 조회
  PUT    /api/portfolio                 - 포트폴리오 교체
  GET    /api/scheduler/jobs            - 작업 목록
  POST   /api/scheduler/jobs/{name}/run - 작업 즉시 실행
  GET    /metrics                       - Prometheus
  GET    /ws/signals                    - 틱 실시간 푸시

Example:
  go run ./cmd/stealth serve
  go run ./cmd/stealth serve --port 9090 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default PORT)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "스케줄러 없이 API만 실행")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Shared dependencies
	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	if servePort != "" {
		rt.cfg.Port = servePort
	}

	// 2. Metrics
	reg := prometheus.NewRegistry()
	var sink metrics.Sink = metrics.Nop{}
	if rt.cfg.MetricsEnabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		sink = metrics.NewPrometheus(reg)
	}

	// 3. Pipeline
	cooldowns := cooldown.New(log)
	orch, err := brain.Build(rt.scan, brain.Providers{
		Universe:  rt.universe,
		Market:    rt.market,
		Portfolio: rt.portfolio,
	}, cooldowns, brain.Options{Metrics: sink}, log)
	if err != nil {
		return err
	}

	// 4. Tick sinks
	hub := ws.NewHub(log)
	defer hub.Close()
	orch.AddSink(hub)

	var store handlers.SignalStore
	if rt.db != nil {
		repo := repos.NewSignalRepository(rt.db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		orch.AddSink(repo)
		store = repo
	}

	if rt.cfg.Kafka.Enabled {
		pub, err := publish.NewKafka(rt.cfg.Kafka, sink, log)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		defer pub.Close()
		orch.AddSink(pub)
	}

	// 5. Scheduler
	sched := scheduler.New(log, scheduler.WithTimeout(2*time.Minute))
	for _, job := range []scheduler.Job{
		jobs.NewScanTickJob(orch, rt.cfg.ScanSchedule, log),
		jobs.NewCooldownSweepJob(cooldowns, log),
		jobs.NewUniverseRefreshJob(rt.universe, log),
	} {
		if err := sched.AddJob(job); err != nil {
			return err
		}
	}
	if !serveNoScheduler {
		sched.Start()
		defer sched.Stop()
	}

	// 6. HTTP
	router := api.NewRouter(api.Deps{
		Ticks:     handlers.NewTickHandler(orch, log),
		Signals:   handlers.NewSignalHandler(store, orch, log),
		Cooldowns: handlers.NewCooldownHandler(cooldowns, log),
		Risk:      handlers.NewRiskHandler(risk.NewEngine(rt.scan.Risk), rt.market, rt.portfolio, log),
		Portfolio: handlers.NewPortfolioHandler(rt.portfolio, log),
		Scheduler: handlers.NewSchedulerHandler(sched, log),
		Modules:   handlers.NewModuleHandler(orch, log),
		Stream:    hub,
		Gatherer:  gatherer(rt.cfg.MetricsEnabled, reg),
	}, log)

	server := api.New(rt.cfg, log, router)

	log.WithFields(map[string]interface{}{
		"modules":   orch.Registry().Names(),
		"scheduler": !serveNoScheduler,
		"database":  rt.db != nil,
		"kafka":     rt.cfg.Kafka.Enabled,
	}).Info("Stealth scan server started")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}

// gatherer returns nil when metrics are disabled (/metrics 미등록)
func gatherer(enabled bool, reg *prometheus.Registry) prometheus.Gatherer {
	if !enabled {
		return nil
	}
	return reg
}

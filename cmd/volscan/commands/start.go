package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/volscan/internal/api"
	"github.com/wonny/volscan/internal/api/handlers"
	"github.com/wonny/volscan/internal/scheduler"
)

// startCmd runs the trigger manager, the config watcher and the API server
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "스크리너 데몬 시작",
	Long: `채널 트리거를 등록하고 지정 시각마다 스크리닝을 실행합니다.

이 명령어는:
- 설정 워크북을 읽어 활성 채널마다 일일 트리거 등록
- 설정 워크북 변경 감지 시 트리거 재등록
- 모든 채널 처리 또는 저장 시각 도달 시 다음 날로 순환
- HTTP API / WebSocket 이벤트 스트림 제공

Endpoints:
  GET  /health                      - Health check
  GET  /metrics                     - Prometheus metrics
  GET  /ws                          - 이벤트 스트림
  GET  /api/schedule                - 트리거 / 상태 조회
  GET  /api/channels                - 채널 설정 조회
  GET  /api/runs                    - 실행 이력 조회
  POST /api/channels/{column}/run   - 채널 즉시 실행
  POST /api/control/start|stop      - 트리거 재개 / 일시정지
  POST /api/control/reload          - 설정 재적재
  POST /api/control/notify          - 완료 알림음 토글

Example:
  go run ./cmd/volscan start
  go run ./cmd/volscan start --port 8090 --no-api`,
	RunE: runStart,
}

var (
	startPort  string
	startNoAPI bool
)

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVar(&startPort, "port", "", "API 서버 포트 (default PORT)")
	startCmd.Flags().BoolVar(&startNoAPI, "no-api", false, "API 서버 없이 스케줄러만 실행")
}

func runStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== volscan Scheduler ===")

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if startPort != "" {
		cfg.Port = startPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, cfg, log, !startNoAPI)
	defer a.Close()

	manager := scheduler.New(
		a.source,
		a.runner,
		a.notifier,
		a.metrics,
		cfg.ArtifactPath,
		cfg.Scanner.PollInterval,
		log,
	)
	watcher := scheduler.NewWatcher(cfg.Scanner.InputWorkbook, cfg.Scanner.ReloadCooldown, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return manager.Run(gctx)
	})

	g.Go(func() error {
		// 감시 실패 시에도 스케줄러는 계속 동작 (reload API로 대체)
		if err := watcher.Run(gctx, manager.RequestReload); err != nil {
			log.WithError(err).Warn("Configuration watcher stopped, use POST /api/control/reload after edits")
		}
		return nil
	})

	if !startNoAPI {
		var metricsHandler http.Handler
		if a.metrics != nil {
			metricsHandler = a.metrics.Handler()
		}
		scheduleHandler := handlers.NewScheduleHandler(manager, a.recorder, a.sound, log)
		router := api.NewRouter(scheduleHandler, a.hub, metricsHandler, log)
		server := api.New(cfg, log, router)

		g.Go(func() error {
			return server.Run(gctx, 30*time.Second)
		})
		fmt.Printf("\n✅ API running on http://localhost:%s\n", cfg.Port)
	}

	fmt.Printf("Watching %s\n", cfg.Scanner.InputWorkbook)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("scheduler stopped: %w", err)
	}

	log.Info("Scheduler stopped")
	return nil
}

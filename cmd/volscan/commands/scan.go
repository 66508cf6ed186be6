package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/volscan/internal/contracts"
)

// scanCmd runs one channel immediately against the current configuration
var scanCmd = &cobra.Command{
	Use:   "scan [column]",
	Short: "채널 1회 즉시 실행",
	Long: `지정한 열의 채널을 지금 즉시 한 번 실행합니다.
트리거 상태는 변경되지 않습니다. 비활성 채널도 실행할 수 있습니다.

column 은 설정 워크북의 열 번호입니다 (첫 채널 = 3).

Example:
  go run ./cmd/volscan scan 3`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	column, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid column %q: %w", args[0], err)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a := newApp(ctx, cfg, log, false)
	defer a.Close()

	table, err := a.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	ch, ok := table.Channels.Lookup(column)
	if !ok {
		return fmt.Errorf("no channel at column %d", column)
	}

	now := time.Now()
	PrintRunHeader(ch, cfg.ArtifactPath(now), now)

	rec, err := a.runner.RunChannel(ctx, contracts.RunRequest{
		Channel:      ch,
		Config:       table,
		ArtifactPath: cfg.ArtifactPath(now),
		Trigger:      "manual",
	})
	PrintRunSummary(rec)
	return err
}

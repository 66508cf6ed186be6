package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/volscan/internal/channelconfig"
	"github.com/wonny/volscan/internal/notify"
	"github.com/wonny/volscan/internal/scheduler"
)

// scheduleCmd prints the triggers the daemon would register right now
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "등록될 트리거 목록",
	Long: `설정 워크북을 읽어 현재 시각 기준으로 등록될 트리거를 출력합니다.
비활성 채널과 잘못된 시각의 채널은 제외됩니다.

Example:
  go run ./cmd/volscan schedule
  go run ./cmd/volscan schedule --input "Input File.xlsx"`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	source := channelconfig.NewSource(cfg.Scanner.InputWorkbook)
	manager := scheduler.New(source, nil, notify.Nop{}, nil, cfg.ArtifactPath, cfg.Scanner.PollInterval, log)

	if err := manager.Rebuild(context.Background(), "startup"); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	PrintSchedule(manager.Snapshot())
	return nil
}

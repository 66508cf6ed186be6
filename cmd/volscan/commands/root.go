package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/volscan/pkg/config"
	"github.com/wonny/volscan/pkg/logger"
)

var (
	// Global flags
	inputWorkbook string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "volscan",
	Short: "volscan - 채널별 거래량 스크리너",
	Long: `volscan Unified CLI

설정 워크북의 각 열(채널)을 지정된 시각에 실행하여
당일 시세 스냅샷을 가격/거래량/평균거래량/비율 조건으로 걸러내고
일별 결과 워크북에 채널별 열로 기록합니다.

Usage:
  go run ./cmd/volscan [command]

Examples:
  go run ./cmd/volscan start
  go run ./cmd/volscan schedule
  go run ./cmd/volscan scan 3
  go run ./cmd/volscan config check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&inputWorkbook, "input", "", "설정 워크북 경로 (default SCAN_INPUT_WORKBOOK)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig applies global flag overrides on top of the environment
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if inputWorkbook != "" {
		cfg.Scanner.InputWorkbook = inputWorkbook
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}

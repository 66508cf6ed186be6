package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/volscan/internal/channelconfig"
	"github.com/wonny/volscan/internal/exclusion"
)

// excludeCmd explains whether a symbol would be excluded by a channel
var excludeCmd = &cobra.Command{
	Use:   "exclude [column] [symbol]",
	Short: "종목 제외 여부 확인",
	Long: `제외 목록과 이름 조각 워크북을 읽어, 지정한 채널에서 종목이
제외되는지와 그 사유를 출력합니다. 수치 조건은 검사하지 않습니다.

Example:
  go run ./cmd/volscan exclude 3 SPY
  go run ./cmd/volscan exclude 3 XYZW --name "Acme Warrant Corp"`,
	Args: cobra.ExactArgs(2),
	RunE: runExclude,
}

var excludeName string

func init() {
	rootCmd.AddCommand(excludeCmd)
	excludeCmd.Flags().StringVar(&excludeName, "name", "", "종목 표시 이름")
}

func runExclude(cmd *cobra.Command, args []string) error {
	column, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid column %q: %w", args[0], err)
	}
	symbol := args[1]

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	table, err := channelconfig.NewSource(cfg.Scanner.InputWorkbook).Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	ch, ok := table.Channels.Lookup(column)
	if !ok {
		return fmt.Errorf("no channel at column %d", column)
	}

	var name *string
	if cmd.Flags().Changed("name") {
		name = &excludeName
	}

	resolver := exclusion.NewLoader(cfg.Scanner, log).Load(ctx)
	excluded, reason := resolver.ShouldExclude(symbol, name, ch)
	if !excluded {
		fmt.Printf("✅ %s is not excluded by column %d\n", symbol, column)
		return nil
	}
	fmt.Printf("🚫 %s excluded by column %d: %s (%s)\n", symbol, column, reason.Detail, reason.Code)
	return nil
}

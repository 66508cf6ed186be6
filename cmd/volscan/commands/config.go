package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/volscan/internal/channelconfig"
	"github.com/wonny/volscan/internal/workbook"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 워크북 관리",
	Long: `설정 워크북을 검사, 출력, 생성합니다.

Subcommands:
  check  - 워크북 파싱 및 오류 출력
  dump   - 파싱된 채널 설정을 YAML로 출력
  init   - 샘플 설정 워크북 생성

Example:
  go run ./cmd/volscan config check
  go run ./cmd/volscan config init --input "Input File.xlsx"`,
}

var (
	configCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "워크북 파싱 및 오류 출력",
		RunE:  runConfigCheck,
	}

	configDumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "채널 설정 YAML 출력",
		RunE:  runConfigDump,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "샘플 설정 워크북 생성",
		RunE:  runConfigInit,
	}

	configInitForce  bool
	configInitSaveAt string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "기존 파일 덮어쓰기")
	configInitCmd.Flags().StringVar(&configInitSaveAt, "save-at", "16:00:00", "일일 저장 시각")
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := channelconfig.NewSource(cfg.Scanner.InputWorkbook).Load(context.Background())
	if err != nil {
		return err
	}

	PrintChannels(table)

	if len(table.Errors) > 0 {
		return fmt.Errorf("%d configuration problems in %s", len(table.Errors), cfg.Scanner.InputWorkbook)
	}
	fmt.Println("\n✅ Configuration OK")
	return nil
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := channelconfig.NewSource(cfg.Scanner.InputWorkbook).Load(context.Background())
	if err != nil {
		return err
	}

	out, err := channelconfig.Dump(table.Channels)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Scanner.InputWorkbook

	exists, err := workbook.Exists(path)
	if err != nil {
		return err
	}
	if exists && !configInitForce {
		return errors.New(path + " already exists (use --force to overwrite)")
	}

	grid := channelconfig.Template(configInitSaveAt, channelconfig.SampleColumn())
	if err := workbook.Write(path, grid); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.WithField("path", path).Info("Sample configuration written")
	fmt.Printf("✅ Sample configuration written to %s\n", path)
	return nil
}

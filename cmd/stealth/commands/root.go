package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	scanConfigPath string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stealth",
	Short: "Stealth scan trader - 틱 기반 시그널 파이프라인",
	Long: `Stealth Scan Trader CLI

모듈 실행 → 집계 → 신뢰도 → 플래티넘 게이트 → 쿨다운 → 보정 → 리스크.
설정은 .env (환경변수) + config/scan.yaml.

Usage:
  go run ./cmd/stealth [command]

Examples:
  go run ./cmd/stealth serve
  go run ./cmd/stealth tick --symbols SOFI,GME
  go run ./cmd/stealth config validate
  go run ./cmd/stealth risk SOFI --confidence 80`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&scanConfigPath, "scan-config", "", "scan config YAML (default SCAN_CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

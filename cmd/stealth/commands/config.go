package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/scanconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "스캔 설정 관리",
	Long: `config/scan.yaml 검증, 출력, 해시.

Subcommands:
  validate - 설정 검증 (경고 포함)
  show     - 기본값이 적용된 최종 설정 출력
  hash     - 정규화된 설정의 SHA256

Example:
  go run ./cmd/stealth config validate
  go run ./cmd/stealth config show --scan-config ./my-scan.yaml`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "설정 검증",
		RunE:  runConfigValidate,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "최종 설정 출력 (YAML)",
		RunE:  runConfigShow,
	}

	configHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "설정 해시 출력",
		RunE:  runConfigHash,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configShowCmd, configHashCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	_, _, sc, _, err := loadBase()
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintHeader("Scan config")
	PrintKeyValue("Name", sc.Meta.Name, 10)
	PrintKeyValue("Version", sc.Meta.Version, 10)
	PrintKeyValue("Cooldown", fmt.Sprintf("%dm", sc.Cooldown.Minutes), 10)
	PrintKeyValue("Universe", fmt.Sprintf("%s (%d)", sc.Universe.Source, sc.Universe.Size), 10)
	fmt.Println("   Modules:")
	PrintList(sc.EnabledModules())
	PrintSeparator()

	for _, w := range scanconfig.Warn(sc) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	PrintSuccess("Scan config is valid")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	_, _, sc, _, err := loadBase()
	if err != nil {
		return err
	}
	out, err := scanconfig.Marshal(sc)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func runConfigHash(cmd *cobra.Command, args []string) error {
	_, _, sc, _, err := loadBase()
	if err != nil {
		return err
	}
	h, err := scanconfig.Hash(sc)
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}

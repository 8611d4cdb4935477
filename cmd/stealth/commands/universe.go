package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "유니버스 조회",
	Long: `설정된 소스로 유니버스를 생성하고 필터 결과를 출력합니다.

Example:
  go run ./cmd/stealth universe
  go run ./cmd/stealth universe --json`,
	RunE: runUniverse,
}

var universeJSON bool

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.Flags().BoolVar(&universeJSON, "json", false, "JSON 출력")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	u, err := rt.universe.Refresh(ctx)
	if err != nil {
		return err
	}
	if universeJSON {
		return PrintJSON(u)
	}

	PrintHeader("Universe")
	PrintKeyValue("Source", u.Source, 10)
	PrintKeyValue("Built", u.BuiltAt.Format("2006-01-02 15:04:05"), 10)
	PrintKeyValue("Symbols", fmt.Sprintf("%d", len(u.Symbols)), 10)
	PrintSeparator()
	PrintList(u.Symbols)

	if len(u.Excluded) > 0 {
		fmt.Println()
		excluded := make([]string, 0, len(u.Excluded))
		for sym := range u.Excluded {
			excluded = append(excluded, sym)
		}
		sort.Strings(excluded)
		fmt.Println("   Excluded:")
		for _, sym := range excluded {
			PrintKeyValue(sym, u.Excluded[sym], 8)
		}
	}
	PrintDoubleSeparator()
	return nil
}

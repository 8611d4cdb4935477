package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
)

// riskCmd represents the risk command
var riskCmd = &cobra.Command{
	Use:   "risk [symbol]",
	Short: "종목 리스크 평가",
	Long: `현재 시세와 포트폴리오로 종목 리스크를 평가합니다.

Example:
  go run ./cmd/stealth risk SOFI --confidence 80`,
	Args: cobra.ExactArgs(1),
	RunE: runRisk,
}

var (
	riskConfidence float64
	riskJSON       bool
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.Flags().Float64Var(&riskConfidence, "confidence", 70, "시그널 신뢰도 (0-100)")
	riskCmd.Flags().BoolVar(&riskJSON, "json", false, "JSON 출력")
}

func runRisk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	symbol := strings.ToUpper(args[0])

	if riskConfidence < 0 || riskConfidence > 100 {
		return fmt.Errorf("confidence must be within 0-100, got %.1f", riskConfidence)
	}

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.market.Snapshot(ctx, []string{symbol})
	if err != nil {
		return fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	pf, err := rt.portfolio.Portfolio(ctx)
	if err != nil {
		return err
	}

	in := risk.InputFromQuote(snap.Quote(symbol))
	in.Symbol = symbol
	in.Confidence = riskConfidence

	ra := risk.NewEngine(rt.scan.Risk).Assess(in, pf, snap.Market)
	if riskJSON {
		return PrintJSON(ra)
	}

	PrintHeader("Risk " + symbol)
	PrintKeyValue("Level", string(ra.Level), 14)
	PrintKeyValue("Overall", fmt.Sprintf("%.3f", ra.Overall), 14)
	PrintSeparator()
	PrintKeyValue("Portfolio", fmt.Sprintf("%.3f", ra.Components.Portfolio), 14)
	PrintKeyValue("Position", fmt.Sprintf("%.3f", ra.Components.Position), 14)
	PrintKeyValue("Market", fmt.Sprintf("%.3f", ra.Components.Market), 14)
	PrintKeyValue("Correlation", fmt.Sprintf("%.3f", ra.Components.Correlation), 14)
	PrintKeyValue("Liquidity", fmt.Sprintf("%.3f", ra.Components.Liquidity), 14)
	PrintSeparator()
	PrintKeyValue("Max position", fmt.Sprintf("%.1f%%", ra.MaxPositionSize*100), 14)
	PrintKeyValue("Stop loss", fmt.Sprintf("%.1f%%", ra.StopLoss*100), 14)
	PrintKeyValue("Take profit", fmt.Sprintf("%.1f%%", ra.TakeProfit*100), 14)
	PrintDoubleSeparator()
	return nil
}

package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/brain"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// tickCmd represents the tick command
var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "틱 1회 실행",
	Long: `스캔 파이프라인을 한 번 실행하고 결과를 출력합니다.
DB/Kafka 싱크는 연결하지 않습니다 (드라이런).

Example:
  go run ./cmd/stealth tick
  go run ./cmd/stealth tick --symbols SOFI,GME --session premarket
  go run ./cmd/stealth tick --json`,
	RunE: runTick,
}

var (
	tickSymbols string
	tickSession string
	tickJSON    bool
)

func init() {
	rootCmd.AddCommand(tickCmd)

	tickCmd.Flags().StringVar(&tickSymbols, "symbols", "", "종목 (콤마 구분, 기본: 유니버스)")
	tickCmd.Flags().StringVar(&tickSession, "session", "", "세션 오버라이드 (premarket|regular|afterhours|closed)")
	tickCmd.Flags().BoolVar(&tickJSON, "json", false, "JSON 출력")
}

func runTick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := brain.TickRequest{
		Symbols: splitSymbols(tickSymbols),
		Session: contracts.Session(tickSession),
	}
	if err := validate.Struct(ctx, &req); err != nil {
		return fmt.Errorf("invalid tick request: %w", err)
	}

	orch, err := brain.Build(rt.scan, brain.Providers{
		Universe:  rt.universe,
		Market:    rt.market,
		Portfolio: rt.portfolio,
	}, nil, brain.Options{}, rt.log)
	if err != nil {
		return err
	}

	result := orch.RunTick(ctx, req)
	if tickJSON {
		return PrintJSON(result)
	}
	printTick(result)
	return nil
}

func printTick(r *contracts.TickResult) {
	PrintHeader("Tick " + r.TickID)
	PrintKeyValue("Time", r.Timestamp.Format("2006-01-02 15:04:05 MST"), 10)
	PrintKeyValue("Session", string(r.Session), 10)
	PrintKeyValue("Universe", fmt.Sprintf("%d", r.UniverseSize), 10)
	PrintKeyValue("Latency", fmt.Sprintf("%.3fs", r.LatencySeconds), 10)
	PrintSeparator()

	if len(r.Stages) > 0 {
		widths := []int{14, 6, 6, 10}
		PrintTableHeader([]string{"Stage", "In", "Out", "ms"}, widths)
		for _, s := range r.Stages {
			PrintTableRow([]string{
				string(s.Stage),
				fmt.Sprintf("%d", s.InputCount),
				fmt.Sprintf("%d", s.OutputCount),
				fmt.Sprintf("%.2f", s.DurationMS),
			}, widths)
		}
		fmt.Println()
	}

	if len(r.Signals) == 0 {
		PrintWarning("No signals emitted")
	} else {
		widths := []int{8, 9, 7, 7, 7, 9, 7}
		PrintTableHeader([]string{"Symbol", "Tier", "Score", "Conf", "Cal", "Risk", "Size"}, widths)
		for _, s := range r.Signals {
			level, size := "-", "-"
			if s.Risk != nil {
				level = string(s.Risk.Level)
				size = fmt.Sprintf("%.1f%%", s.Risk.MaxPositionSize*100)
			}
			PrintTableRow([]string{
				s.Symbol,
				string(s.Tier),
				fmt.Sprintf("%.1f", s.AggregateScore),
				fmt.Sprintf("%.1f", s.AdjustedConfidence),
				fmt.Sprintf("%.1f", s.CalibratedConfidence),
				level,
				size,
			}, widths)
		}
	}

	if len(r.Rejections) > 0 {
		fmt.Println()
		reasons := make([]string, 0, len(r.Rejections))
		for reason := range r.Rejections {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			PrintKeyValue("rejected/"+reason, fmt.Sprintf("%d", r.Rejections[reason]), 20)
		}
	}

	if len(r.Errors) > 0 {
		fmt.Println()
		for _, e := range r.Errors {
			PrintError(fmt.Sprintf("%s: %s", e.Module, e.Error))
		}
	}
	PrintDoubleSeparator()
}

package contracts

// Position is one open holding
type Position struct {
	Symbol string  `json:"symbol" yaml:"symbol" validate:"required"`
	Sector string  `json:"sector" yaml:"sector"`
	Value  float64 `json:"value" yaml:"value" validate:"gte=0"`
}

// PortfolioState is the account context for risk assessment
// ⭐ SSOT: PortfolioProvider → Risk Engine 입력
type PortfolioState struct {
	Positions       []Position `json:"positions" yaml:"positions" validate:"dive"`
	TotalValue      float64    `json:"total_value" yaml:"total_value" validate:"gte=0"`
	CurrentDrawdown float64    `json:"current_drawdown" yaml:"current_drawdown"`
	MaxDrawdown     float64    `json:"max_drawdown" yaml:"max_drawdown" validate:"gte=0"`
	WinRate         float64    `json:"win_rate" yaml:"win_rate" validate:"gte=0,lte=1"`
	AvgWin          float64    `json:"avg_win" yaml:"avg_win" validate:"gte=0"`
	AvgLoss         float64    `json:"avg_loss" yaml:"avg_loss" validate:"gte=0"`
}

// Exposure is the sum of position values
func (p *PortfolioState) Exposure() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.Value
	}
	return total
}

// Holds reports whether symbol is already held
func (p *PortfolioState) Holds(symbol string) bool {
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			return true
		}
	}
	return false
}

// RiskLevel is the discrete bucket of overall risk
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// RiskComponents are the five normalized risk scores, each in [0,1]
type RiskComponents struct {
	Portfolio   float64 `json:"portfolio" yaml:"portfolio"`
	Position    float64 `json:"position" yaml:"position"`
	Market      float64 `json:"market" yaml:"market"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
	Liquidity   float64 `json:"liquidity" yaml:"liquidity"`
}

// RiskAssessment is recomputed per (candidate, portfolio, market); never cached
type RiskAssessment struct {
	Symbol          string         `json:"symbol" yaml:"symbol"`
	Components      RiskComponents `json:"components" yaml:"components"`
	Overall         float64        `json:"overall" yaml:"overall"`
	Level           RiskLevel      `json:"level" yaml:"level"`
	MaxPositionSize float64        `json:"max_position_size" yaml:"max_position_size"` // fraction of portfolio
	StopLoss        float64        `json:"stop_loss" yaml:"stop_loss"`                 // fraction
	TakeProfit      float64        `json:"take_profit" yaml:"take_profit"`             // fraction
}

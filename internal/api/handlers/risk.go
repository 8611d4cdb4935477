package handlers

import (
	"net/http"
	"strings"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// RiskAssessRequest is the body of POST /api/risk/assess
// 0 값 필드는 시세 또는 엔진 기본값으로 채움
type RiskAssessRequest struct {
	Symbol          string                 `json:"symbol" validate:"required,max=12"`
	Sector          string                 `json:"sector" validate:"max=64"`
	Confidence      float64                `json:"confidence" validate:"gte=0,lte=100"`
	MomentumScore   float64                `json:"momentum_score" validate:"gte=0,lte=100"`
	Volatility      float64                `json:"volatility" validate:"gte=0,lte=5"`
	CatalystAgeDays float64                `json:"catalyst_age_days" validate:"gte=0"`
	AvgVolume       float64                `json:"avg_volume" validate:"gte=0"`
	Spread          float64                `json:"spread" validate:"gte=0,lte=1"`
	TurnoverRate    float64                `json:"turnover_rate" validate:"gte=0"`
	Market          *contracts.MarketState `json:"market,omitempty"`
}

// RiskHandler assesses ad-hoc positions
type RiskHandler struct {
	engine    *risk.Engine
	market    contracts.MarketDataProvider // optional
	portfolio contracts.PortfolioProvider  // optional
	logger    *logger.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(engine *risk.Engine, market contracts.MarketDataProvider, pf contracts.PortfolioProvider, log *logger.Logger) *RiskHandler {
	return &RiskHandler{engine: engine, market: market, portfolio: pf, logger: log}
}

// Assess returns a RiskAssessment for the requested symbol
// POST /api/risk/assess
func (h *RiskHandler) Assess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RiskAssessRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(ctx, &req); err != nil {
		respondValidation(w, err)
		return
	}
	req.Symbol = strings.ToUpper(req.Symbol)

	in := risk.Input{Symbol: req.Symbol}
	var mkt contracts.MarketState
	if h.market != nil {
		if snap, err := h.market.Snapshot(ctx, []string{req.Symbol}); err == nil {
			in = risk.InputFromQuote(snap.Quote(req.Symbol))
			in.Symbol = req.Symbol
			mkt = snap.Market
		} else {
			h.logger.WithError(err).WithField("symbol", req.Symbol).Debug("No quote for risk request, using request fields only")
		}
	}
	if req.Market != nil {
		mkt = *req.Market
	}
	req.apply(&in)

	var pf contracts.PortfolioState
	if h.portfolio != nil {
		p, err := h.portfolio.Portfolio(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load portfolio")
			respondError(w, http.StatusInternalServerError, "failed to load portfolio")
			return
		}
		pf = p
	}

	respondJSON(w, http.StatusOK, h.engine.Assess(in, pf, mkt))
}

// apply overrides quote-derived fields with non-zero request fields
func (req RiskAssessRequest) apply(in *risk.Input) {
	in.Confidence = req.Confidence
	if req.Sector != "" {
		in.Sector = req.Sector
	}
	if req.MomentumScore > 0 {
		in.MomentumScore = req.MomentumScore
	}
	if req.Volatility > 0 {
		in.Volatility = req.Volatility
	}
	if req.CatalystAgeDays > 0 {
		in.CatalystAgeDays = req.CatalystAgeDays
	}
	if req.AvgVolume > 0 {
		in.AvgVolume = req.AvgVolume
	}
	if req.Spread > 0 {
		in.Spread = req.Spread
	}
	if req.TurnoverRate > 0 {
		in.TurnoverRate = req.TurnoverRate
	}
}

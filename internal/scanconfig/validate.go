package scanconfig

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// ErrUnknownModule is returned for a module name with no implementation
var ErrUnknownModule = modules.ErrUnknownModule

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === 구조체 태그 (meta, cooldown, universe) ===
	if err := validate.Struct(context.Background(), cfg); err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return ValidationError{verrs[0].Field, verrs[0].Message}
		}
		return err
	}

	// === Executor ===
	if cfg.Executor.Workers < 1 {
		return ValidationError{"executor.workers", "must be >= 1"}
	}
	if cfg.Executor.ModuleTimeout <= 0 {
		return ValidationError{"executor.module_timeout", "must be > 0"}
	}

	// === Scoring ===
	if err := cfg.Scoring.Validate(); err != nil {
		return ValidationError{"scoring", err.Error()}
	}

	// === Gatekeeper ===
	if err := cfg.Gatekeeper.Validate(); err != nil {
		return ValidationError{"gatekeeper", err.Error()}
	}

	// === Calibration ===
	c := cfg.Calibration
	for field, v := range map[string]float64{
		"platinum": c.Platinum, "gold": c.Gold, "silver": c.Silver, "bronze": c.Bronze, "default": c.Default,
	} {
		if v <= 0 || math.IsNaN(v) {
			return ValidationError{"calibration." + field, "must be > 0"}
		}
	}

	// === Risk ===
	if err := cfg.Risk.Validate(); err != nil {
		return ValidationError{"risk", err.Error()}
	}

	// === Universe ===
	if err := cfg.Universe.CheckLists(); err != nil {
		return ValidationError{"universe.lists", err.Error()}
	}

	// === Modules ===
	// 모듈 이름 + 파라미터 (실제 생성으로 검증)
	if _, err := modules.Build(cfg.Modules, modules.Deps{}); err != nil {
		if errors.Is(err, ErrUnknownModule) {
			return fmt.Errorf("modules: %w", err)
		}
		return ValidationError{"modules", err.Error()}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if len(cfg.EnabledModules()) == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_MODULES",
			Message: "활성 모듈 없음: 모든 틱이 빈 시그널",
		})
	}

	if cfg.Gatekeeper.MinConfidence < cfg.Scoring.Thresholds.Platinum {
		warnings = append(warnings, Warning{
			Code:    "GATE_BELOW_PLATINUM",
			Message: fmt.Sprintf("gatekeeper.min_confidence %.0f < platinum threshold %.0f: confidence check never fails", cfg.Gatekeeper.MinConfidence, cfg.Scoring.Thresholds.Platinum),
		})
	}

	if cfg.Cooldown.Minutes < 5 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_COOLDOWN",
			Message: "cooldown < 5분: 같은 종목 반복 알림",
		})
	}

	if cfg.Executor.ModuleTimeout > 30*time.Second {
		warnings = append(warnings, Warning{
			Code:    "LONG_MODULE_TIMEOUT",
			Message: "module_timeout > 30s: 틱 지연 증가",
		})
	}

	return warnings
}

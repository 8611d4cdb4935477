package scanconfig

import (
	"github.com/waleedabsoluit/stealth-scan-trader/internal/executor"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/gatekeeper"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scoring"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/universe"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// Config는 스캔 파이프라인 전체 설정
// ⭐ SSOT: config/scan.yaml 구조
type Config struct {
	Meta        Meta                       `yaml:"meta" json:"meta"`
	Executor    executor.Config            `yaml:"executor" json:"executor"`
	Scoring     scoring.Config             `yaml:"scoring" json:"scoring"`
	Gatekeeper  gatekeeper.Config          `yaml:"gatekeeper" json:"gatekeeper"`
	Cooldown    Cooldown                   `yaml:"cooldown" json:"cooldown"`
	Calibration scoring.CalibrationFactors `yaml:"calibration" json:"calibration"`
	Risk        risk.Config                `yaml:"risk" json:"risk"`
	Universe    universe.Config            `yaml:"universe" json:"universe"`
	Modules     map[string]modules.Spec    `yaml:"modules" json:"modules"`
}

// Meta 메타 정보
type Meta struct {
	Name    string `yaml:"name" json:"name" default:"stealth_scan" validate:"required"`
	Version string `yaml:"version" json:"version" default:"1"`
}

// Cooldown 재알림 억제 설정
type Cooldown struct {
	Minutes int `yaml:"minutes" json:"minutes" default:"30" validate:"gte=1,lte=1440"`
}

// Default returns the built-in configuration
// 각 컴포넌트의 DefaultConfig + 구조체 default 태그
func Default() *Config {
	cfg := &Config{
		Executor:    executor.DefaultConfig(),
		Scoring:     scoring.DefaultConfig(),
		Gatekeeper:  gatekeeper.DefaultConfig(),
		Calibration: scoring.DefaultCalibration(),
		Risk:        risk.DefaultConfig(),
		Modules:     modules.DefaultSpecs(),
	}
	// default 태그는 0 값 필드만 채움
	_ = validate.Defaults(cfg)
	return cfg
}

// EnabledModules lists enabled module names in registry order
func (c *Config) EnabledModules() []string {
	var names []string
	for _, name := range modules.Names() {
		if spec, ok := c.Modules[name]; ok && spec.Enabled {
			names = append(names, name)
		}
	}
	return names
}

package contracts

// Tick Stage 정의 (SSOT)
// 모든 로그, 메트릭, 저장 row에서 이 상수를 사용해야 함
//
// 틱 흐름:
//   T0 → T1 → T2 → T3 → T4 → T5 → T6
//   Modules  Aggregate  Score  Gate  Cooldown  Calibrate  Risk

// Stage represents a tick pipeline stage
type Stage string

const (
	// StageModules T0: 분석 모듈 병렬 실행
	// 위치: internal/executor/
	StageModules Stage = "T0_MODULES"

	// StageAggregate T1: 종목별 시그널 병합
	// 위치: internal/aggregator/
	StageAggregate Stage = "T1_AGGREGATE"

	// StageScore T2: 신뢰도 산출 및 티어 부여
	// 위치: internal/scoring/scorer.go
	StageScore Stage = "T2_SCORE"

	// StageGate T3: PLATINUM 하드 체크
	// 위치: internal/gatekeeper/
	StageGate Stage = "T3_GATE"

	// StageCooldown T4: 재알림 억제
	// 위치: internal/cooldown/
	StageCooldown Stage = "T4_COOLDOWN"

	// StageCalibrate T5: 티어별 보정
	// 위치: internal/scoring/calibrator.go
	StageCalibrate Stage = "T5_CALIBRATE"

	// StageRisk T6: 포지션 사이징/손절/익절 산출
	// 위치: internal/risk/
	StageRisk Stage = "T6_RISK"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "T0", "T1")
func (s Stage) ShortName() string {
	for i, stage := range AllStages() {
		if stage == s {
			return "T" + string(rune('0'+i))
		}
	}
	return "UNKNOWN"
}

// AllStages returns all tick stages in order
func AllStages() []Stage {
	return []Stage{
		StageModules,
		StageAggregate,
		StageScore,
		StageGate,
		StageCooldown,
		StageCalibrate,
		StageRisk,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult records one stage of one tick
type StageResult struct {
	Stage       Stage   `json:"stage"`
	InputCount  int     `json:"input_count"`
	OutputCount int     `json:"output_count"`
	DurationMS  float64 `json:"duration_ms"`
}

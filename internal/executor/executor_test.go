package executor

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

func okModule(name string, signals ...contracts.RawSignal) modules.Module {
	return modules.Func{ModuleName: name, Fn: func(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
		return &contracts.ModuleOutput{Signals: signals, Metrics: map[string]interface{}{"count": len(signals)}}, nil
	}}
}

func failingModule(name string, err error) modules.Module {
	return modules.Func{ModuleName: name, Fn: func(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
		return nil, err
	}}
}

func panickingModule(name string) modules.Module {
	return modules.Func{ModuleName: name, Fn: func(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
		var m map[string]int
		m["boom"]++
		return nil, nil
	}}
}

func badOutputModule(name string, out *contracts.ModuleOutput) modules.Module {
	return modules.Func{ModuleName: name, Fn: func(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
		return out, nil
	}}
}

func hungModule(name string, release <-chan struct{}) modules.Module {
	return modules.Func{ModuleName: name, Fn: func(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
		<-release
		return &contracts.ModuleOutput{}, nil
	}}
}

func TestRun_Success(t *testing.T) {
	sink := metrics.NewMemory()
	e := New(DefaultConfig(), sink, nil)

	mods := []modules.Module{
		okModule("a", contracts.RawSignal{Symbol: "AAPL", Score: contracts.Score(70)}),
		okModule("b"),
	}
	outputs, errs := e.Run(context.Background(), mods, &contracts.MarketSnapshot{})

	assert.Empty(t, errs)
	require.Len(t, outputs, 2)
	assert.Equal(t, "a", outputs["a"].Module)
	assert.Len(t, outputs["a"].Signals, 1)
	assert.False(t, outputs["a"].Timestamp.IsZero())
	assert.False(t, outputs["b"].IsFallback())

	assert.Equal(t, 1.0, sink.Counter(metrics.ModuleExecutions, "a", StatusSuccess))
	assert.Len(t, sink.Observations(metrics.ModuleDuration, "b"), 1)
}

func TestRun_FailuresBecomeFallback(t *testing.T) {
	tests := []struct {
		name   string
		module modules.Module
		status string
		errMsg string
		stack  bool
	}{
		{"error", failingModule("m", errors.New("upstream down")), StatusError, "upstream down", false},
		{"panic", panickingModule("m"), StatusPanic, "panic:", true},
		{"nil output", badOutputModule("m", nil), StatusInvalid, "nil output", false},
		{"empty symbol", badOutputModule("m", &contracts.ModuleOutput{Signals: []contracts.RawSignal{{Symbol: ""}}}), StatusInvalid, "empty symbol", false},
		{"score above range", badOutputModule("m", &contracts.ModuleOutput{Signals: []contracts.RawSignal{{Symbol: "X", Score: contracts.Score(150)}}}), StatusInvalid, "outside [0,100]", false},
		{"nan score", badOutputModule("m", &contracts.ModuleOutput{Signals: []contracts.RawSignal{{Symbol: "X", Score: contracts.Score(math.NaN())}}}), StatusInvalid, "outside [0,100]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := metrics.NewMemory()
			e := New(DefaultConfig(), sink, nil)

			outputs, errs := e.Run(context.Background(), []modules.Module{tt.module}, nil)

			require.Len(t, errs, 1)
			assert.Equal(t, "m", errs[0].Module)
			assert.Contains(t, errs[0].Error, tt.errMsg)
			if tt.stack {
				assert.NotEmpty(t, errs[0].Stack)
			} else {
				assert.Empty(t, errs[0].Stack)
			}

			out := outputs["m"]
			require.NotNil(t, out)
			assert.True(t, out.IsFallback())
			assert.Empty(t, out.Signals)
			assert.Equal(t, "m", out.Module)

			assert.Equal(t, 1.0, sink.Counter(metrics.ModuleExecutions, "m", tt.status))
		})
	}
}

func TestRun_AlwaysFailingModuleReportedOnce(t *testing.T) {
	e := New(DefaultConfig(), nil, nil)

	mods := []modules.Module{
		okModule("first", contracts.RawSignal{Symbol: "TSLA", Score: contracts.Score(60)}),
		failingModule("flaky", errors.New("always fails")),
		okModule("last", contracts.RawSignal{Symbol: "TSLA", Score: contracts.Score(80)}),
	}

	outputs, errs := e.Run(context.Background(), mods, nil)

	require.Len(t, errs, 1)
	assert.Equal(t, "flaky", errs[0].Module)
	assert.Len(t, outputs["first"].Signals, 1)
	assert.Len(t, outputs["last"].Signals, 1)
	assert.True(t, outputs["flaky"].IsFallback())
}

func TestRun_TimeoutAbandonsHungModule(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	sink := metrics.NewMemory()
	e := New(Config{Workers: 4, ModuleTimeout: 50 * time.Millisecond}, sink, nil)

	mods := []modules.Module{
		hungModule("hung", release),
		okModule("fast", contracts.RawSignal{Symbol: "F", Score: contracts.Score(10)}),
	}

	start := time.Now()
	outputs, errs := e.Run(context.Background(), mods, nil)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, errs, 1)
	assert.Equal(t, "hung", errs[0].Module)
	assert.Contains(t, errs[0].Error, ErrModuleTimeout.Error())
	assert.True(t, outputs["hung"].IsFallback())
	assert.Len(t, outputs["fast"].Signals, 1)
	assert.Equal(t, 1.0, sink.Counter(metrics.ModuleExecutions, "hung", StatusTimeout))
}

func TestRun_BoundedConcurrency(t *testing.T) {
	var running, peak int32

	slow := func(name string) modules.Module {
		return modules.Func{ModuleName: name, Fn: func(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return &contracts.ModuleOutput{}, nil
		}}
	}

	mods := []modules.Module{slow("a"), slow("b"), slow("c"), slow("d"), slow("e"), slow("f")}
	e := New(Config{Workers: 2, ModuleTimeout: time.Second}, nil, nil)

	outputs, errs := e.Run(context.Background(), mods, nil)
	assert.Empty(t, errs)
	assert.Len(t, outputs, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRun_ErrorsInRegistryOrder(t *testing.T) {
	e := New(DefaultConfig(), nil, nil)
	mods := []modules.Module{
		failingModule("z", errors.New("z")),
		failingModule("a", errors.New("a")),
		failingModule("m", errors.New("m")),
	}

	_, errs := e.Run(context.Background(), mods, nil)
	require.Len(t, errs, 3)
	assert.Equal(t, []string{"z", "a", "m"}, []string{errs[0].Module, errs[1].Module, errs[2].Module})
}

func TestNew_Defaults(t *testing.T) {
	e := New(Config{}, nil, nil)
	assert.Equal(t, 10, e.Config().Workers)
	assert.Equal(t, 5*time.Second, e.Config().ModuleTimeout)
}

package log

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })
	require.NoError(t, Init(false))
	assert.NotNil(t, log)
	require.NoError(t, Init(true))
	assert.NotNil(t, log)
}

func TestSetLogger_Observed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { SetLogger(nil) })

	Infof("dashboard built for %s", "2025-04-09")
	Warnf("day %s unavailable", "2025-04-08")
	Debugf("%d loads", 9)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "dashboard built for 2025-04-09", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "day 2025-04-08 unavailable", entries[1].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}

func TestNilLoggerIsNop(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		Infof("ignored %d", 1)
		Sync()
	})
}

func TestConcurrentUseBeforeInit(t *testing.T) {
	SetLogger(nil)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Debugf("load %d", i)
			Errorf("load %d failed", i)
		}()
	}
	wg.Wait()
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IvanBrykalov/memocache/cache"
	"github.com/IvanBrykalov/memocache/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDemo(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	info, err := runDemo(&out, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, cache.Info{Hits: 1, Misses: 2, MaxSize: 2, CurrSize: 2}, info)

	s := out.String()
	assert.Contains(t, s, "lookup(a)      -> [a b]")
	assert.Contains(t, s, "insert(c,3)    -> [c a]")
	assert.Contains(t, s, "=2 (capacity)")
}

func smallStress() *config.Configuration {
	cfg := config.NewDefault()
	cfg.Cache.Capacity = 16
	cfg.Stress.Workers = 4
	cfg.Stress.Iterations = 2_000
	cfg.Stress.Keys = 64
	cfg.Stress.SampleEvery = time.Millisecond
	return cfg
}

func TestRunStress(t *testing.T) {
	t.Parallel()

	cfg := smallStress()
	cfg.Stress.FailureRate = 0.05

	rep, err := runStress(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4*2_000, rep.Calls)
	assert.Positive(t, rep.Failures)
	assert.Positive(t, rep.Samples)
	assert.LessOrEqual(t, rep.MaxSeen, 16)
	assert.Equal(t, rep.Calls, rep.Info.Hits+rep.Info.Misses)
}

func TestRunStress_SingleFlightUnbounded(t *testing.T) {
	t.Parallel()

	cfg := smallStress()
	cfg.Cache.Unbounded = true
	cfg.Cache.SingleFlight = true
	cfg.Stress.ComputeDelay = 50 * time.Microsecond

	rep, err := runStress(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, rep.Info.CurrSize, 64)
	assert.True(t, rep.Info.Unbounded)
}

func TestRunStress_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runStress(ctx, smallStress(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestRootCmd_Demo(t *testing.T) {
	out := execute(t, "demo", "--log-level", "error")
	assert.Contains(t, out, "info: hits=1 misses=2 maxsize=2 currsize=2")
}

func TestRootCmd_StressPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memobench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  capacity: 4
stress:
  workers: 2
  iterations: 100
  keys: 8
`), 0o600))

	// env overrides the file; the flag overrides both
	t.Setenv("MEMOBENCH_CACHE_CAPACITY", "6")
	t.Setenv("MEMOBENCH_STRESS_ITERATIONS", "50")

	out := execute(t, "stress", "--config", path, "--workers", "3", "--log-level", "error")
	assert.Contains(t, out, "cap=6 ")
	assert.Contains(t, out, "workers=3 keys=8 iterations=50")
	assert.Contains(t, out, "calls=150 ")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"stress", "--workers", "0"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stress.workers")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/memocache/cache"
	"github.com/IvanBrykalov/memocache/internal/config"
	"github.com/IvanBrykalov/memocache/internal/logging"
	pmet "github.com/IvanBrykalov/memocache/metrics/prom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errInjected = errors.New("memobench: injected compute failure")

func newStressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent GetOrCompute calls over a shared key pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithContext(cmd.Context(), a.log)
			return runStressCmd(ctx, cmd.OutOrStdout(), a.cfg)
		},
	}

	f := cmd.Flags()
	f.Int("workers", 8, "number of worker goroutines")
	f.Int("iterations", 10_000, "GetOrCompute calls per worker")
	f.Int("keys", 512, "size of the shared key pool")
	f.Duration("compute-delay", 0, "simulated compute latency")
	f.Float64("failure-rate", 0, "fraction of computes that fail [0..1]")
	f.Duration("sample-every", 10*time.Millisecond, "size/structure sampling interval")
	f.Int64("seed", 1, "random seed")
	f.String("metrics-addr", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
	f.String("metrics-namespace", "memocache", "Prometheus namespace")
	return cmd
}

// stressReport summarizes one stress run.
type stressReport struct {
	Info     cache.Info
	Calls    uint64
	Failures uint64
	Samples  uint64
	MaxSeen  int
	Elapsed  time.Duration
}

// runStressCmd wires metrics and the HTTP endpoint around runStress and
// prints the report.
func runStressCmd(ctx context.Context, w io.Writer, cfg *config.Configuration) error {
	log := logging.FromContext(ctx)

	var m cache.Metrics
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m = pmet.New(reg, cfg.Metrics.Namespace, "bench", nil)

		ln, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Metrics.Addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shCtx)
		}()
	}

	rep, err := runStress(ctx, cfg, m)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "cap=%d unbounded=%t typed=%t single_flight=%t workers=%d keys=%d iterations=%d seed=%d\n",
		cfg.Cache.Capacity, cfg.Cache.Unbounded, cfg.Cache.Typed, cfg.Cache.SingleFlight,
		cfg.Stress.Workers, cfg.Stress.Keys, cfg.Stress.Iterations, cfg.Stress.Seed)
	fmt.Fprintf(w, "calls=%d (%.0f calls/s) failures=%d elapsed=%v\n",
		rep.Calls, float64(rep.Calls)/rep.Elapsed.Seconds(), rep.Failures, rep.Elapsed)
	fmt.Fprintf(w, "hits=%d misses=%d hit-rate=%.2f%% currsize=%d\n",
		rep.Info.Hits, rep.Info.Misses, rep.Info.HitRate()*100, rep.Info.CurrSize)
	fmt.Fprintf(w, "samples=%d max-size-seen=%d\n", rep.Samples, rep.MaxSeen)
	return nil
}

// runStress has cfg.Stress.Workers goroutines call GetOrCompute
// cfg.Stress.Iterations times each over a pool of cfg.Stress.Keys integer
// keys while a sampler checks the size bound and the list structure. Any
// violation aborts the run with an error.
func runStress(ctx context.Context, cfg *config.Configuration, m cache.Metrics) (stressReport, error) {
	log := logging.FromContext(ctx)
	opt := config.CacheOptions[int](cfg.Cache)
	opt.Metrics = m
	opt.Logger = log

	c, err := cache.New(opt)
	if err != nil {
		return stressReport{}, err
	}

	sc := cfg.Stress
	var rep stressReport
	var calls, failures atomic.Uint64

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	var workers sync.WaitGroup

	start := time.Now()
	for w := 0; w < sc.Workers; w++ {
		r := rand.New(rand.NewSource(sc.Seed + int64(w)*9973))
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for i := 0; i < sc.Iterations; i++ {
				if i%256 == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				k := r.Intn(sc.Keys)
				fail := sc.FailureRate > 0 && r.Float64() < sc.FailureRate
				v, err := c.GetOrCompute([]any{k}, nil, func() (int, error) {
					if sc.ComputeDelay > 0 {
						time.Sleep(sc.ComputeDelay)
					}
					if fail {
						return 0, errInjected
					}
					return k * k, nil
				})
				calls.Add(1)
				switch {
				case errors.Is(err, errInjected):
					failures.Add(1)
				case err != nil:
					return err
				case v != k*k:
					return fmt.Errorf("key %d: got %d, want %d", k, v, k*k)
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(done)
	}()

	// sampler: stops when the workers finish or the group is cancelled
	g.Go(func() error {
		t := time.NewTicker(sc.SampleEvery)
		defer t.Stop()
		for {
			if err := sample(c, cfg.Cache, &rep); err != nil {
				return err
			}
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return nil
			case <-t.C:
			}
		}
	})

	err = g.Wait()
	rep.Elapsed = time.Since(start)
	if err != nil {
		return rep, err
	}

	// one last look at the quiescent cache
	if err := sample(c, cfg.Cache, &rep); err != nil {
		return rep, err
	}
	rep.Info = c.Info()
	rep.Calls = calls.Load()
	rep.Failures = failures.Load()

	log.Info().
		Uint64("calls", rep.Calls).
		Uint64("hits", rep.Info.Hits).
		Uint64("misses", rep.Info.Misses).
		Int("size", rep.Info.CurrSize).
		Dur("elapsed", rep.Elapsed).
		Msg("stress run finished")
	return rep, nil
}

// sample checks the size bound and runs a full structural validation.
func sample(c cache.Cache[int], cc config.CacheConfig, rep *stressReport) error {
	info := c.Info()
	rep.Samples++
	if info.CurrSize > rep.MaxSeen {
		rep.MaxSeen = info.CurrSize
	}
	if !cc.Unbounded && info.CurrSize > cc.Capacity {
		return fmt.Errorf("size %d exceeds capacity %d", info.CurrSize, cc.Capacity)
	}
	return c.Validate()
}

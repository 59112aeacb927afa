package main

import (
	"fmt"
	"strings"

	"github.com/IvanBrykalov/memocache/internal/config"
	"github.com/IvanBrykalov/memocache/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the resolved configuration and logger into subcommands.
type app struct {
	v   *viper.Viper
	cfg *config.Configuration
	log zerolog.Logger
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"log.level":            "log-level",
	"log.format":           "log-format",
	"cache.capacity":       "capacity",
	"cache.unbounded":      "unbounded",
	"cache.typed":          "typed",
	"cache.single_flight":  "single-flight",
	"stress.workers":       "workers",
	"stress.iterations":    "iterations",
	"stress.keys":          "keys",
	"stress.compute_delay": "compute-delay",
	"stress.failure_rate":  "failure-rate",
	"stress.sample_every":  "sample-every",
	"stress.seed":          "seed",
	"metrics.addr":         "metrics-addr",
	"metrics.namespace":    "metrics-namespace",
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "memobench",
		Short:         "Exercise the memocache LRU cache",
		Long:          `Replays the reference capacity-2 scenario (demo) or hammers a shared cache from many goroutines (stress).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML configuration file")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.Int("capacity", 128, "cache capacity (entries)")
	pf.Bool("unbounded", false, "disable eviction")
	pf.Bool("typed", false, "keep arguments of different types apart (3 vs 3.0)")
	pf.Bool("single-flight", false, "share one compute between concurrent misses on a key")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memobench %s (commit %s)\n", version, commit)
		},
	}

	rootCmd.AddCommand(versionCmd, newDemoCmd(a), newStressCmd(a))
	return rootCmd
}

// load resolves the configuration: defaults, then the YAML file, then
// MEMOBENCH_* environment variables, then explicitly set flags.
func (a *app) load(cmd *cobra.Command) error {
	cfg := config.NewDefault()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return err
		}
	}

	v := a.v
	v.SetEnvPrefix("MEMOBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	for k, name := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(k, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lvl, _ := logging.ParseLevel(cfg.Log.Level)
	lc := logging.DefaultConfig()
	lc.Level = lvl
	lc.Format = cfg.Log.Format
	lc.Output = cmd.ErrOrStderr()

	a.cfg = cfg
	a.log = logging.New(lc).With().Str("cmd", cmd.Name()).Logger()
	a.log.Debug().Interface("config", cfg).Msg("configuration resolved")
	return nil
}

// setDefaults seeds viper with cfg so that env vars and flags only
// override what they actually set.
func setDefaults(v *viper.Viper, cfg *config.Configuration) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetDefault("cache.capacity", cfg.Cache.Capacity)
	v.SetDefault("cache.unbounded", cfg.Cache.Unbounded)
	v.SetDefault("cache.typed", cfg.Cache.Typed)
	v.SetDefault("cache.single_flight", cfg.Cache.SingleFlight)

	v.SetDefault("stress.workers", cfg.Stress.Workers)
	v.SetDefault("stress.iterations", cfg.Stress.Iterations)
	v.SetDefault("stress.keys", cfg.Stress.Keys)
	v.SetDefault("stress.compute_delay", cfg.Stress.ComputeDelay)
	v.SetDefault("stress.failure_rate", cfg.Stress.FailureRate)
	v.SetDefault("stress.sample_every", cfg.Stress.SampleEvery)
	v.SetDefault("stress.seed", cfg.Stress.Seed)

	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("metrics.namespace", cfg.Metrics.Namespace)
}

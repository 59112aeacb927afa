package main

import (
	"fmt"
	"io"

	"github.com/IvanBrykalov/memocache/cache"
	"github.com/IvanBrykalov/memocache/key"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Replay the capacity-2 scenario and print the cache info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := runDemo(cmd.OutOrStdout(), a.log)
			return err
		},
	}
}

// runDemo inserts a and b, reads a back, then inserts c into a cache of
// capacity 2, which must evict b. It prints the recency order after each
// step and returns the final Info.
func runDemo(w io.Writer, log zerolog.Logger) (cache.Info, error) {
	c, err := cache.New(cache.Options[int]{
		Capacity: 2,
		Logger:   &log,
		OnEvict: func(k key.Key, v int, r cache.EvictReason) {
			fmt.Fprintf(w, "  evicted %s=%d (%s)\n", k, v, r)
		},
	})
	if err != nil {
		return cache.Info{}, err
	}

	names := map[key.Key]string{}
	show := func(step string) {
		order := make([]string, 0, c.Len())
		for _, k := range c.Keys() {
			order = append(order, names[k])
		}
		fmt.Fprintf(w, "%-14s -> %v\n", step, order)
	}
	compute := func(name string, v int) error {
		names[key.Must(name)] = name
		_, err := c.GetOrCompute([]any{name}, nil, func() (int, error) { return v, nil })
		return err
	}

	if err := compute("a", 1); err != nil {
		return cache.Info{}, err
	}
	show("insert(a,1)")
	if err := compute("b", 2); err != nil {
		return cache.Info{}, err
	}
	show("insert(b,2)")
	if err := compute("a", -1); err != nil {
		return cache.Info{}, err
	}
	show("lookup(a)")
	names[key.Must("c")] = "c"
	if err := c.Put([]any{"c"}, nil, 3); err != nil {
		return cache.Info{}, err
	}
	show("insert(c,3)")

	info := c.Info()
	fmt.Fprintf(w, "info: hits=%d misses=%d maxsize=%d currsize=%d\n",
		info.Hits, info.Misses, info.MaxSize, info.CurrSize)
	return info, c.Validate()
}

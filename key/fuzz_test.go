package key

import (
	"testing"
)

// Keys must be stable under keyword reordering and must never panic on
// arbitrary strings and numbers.
func FuzzBuild(f *testing.F) {
	f.Add("", int64(0), 0.0, "a", "b")
	f.Add("x", int64(-1), 3.0, "k", "k2")
	f.Add("αβγ", int64(1<<40), 1e300, "🙂", "")

	f.Fuzz(func(t *testing.T, s string, i int64, fl float64, n1, n2 string) {
		if n1 == n2 {
			n2 += "_"
		}
		a, err := Build([]any{s, i, fl, Tuple{s, fl}}, map[string]any{n1: i, n2: s}, false)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		kw := make(map[string]any, 2)
		kw[n2] = s
		kw[n1] = i
		b, err := Build([]any{s, i, fl, Tuple{s, fl}}, kw, false)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if a != b {
			t.Fatalf("keyword order changed the key")
		}
		if i > -(1<<53) && i < 1<<53 && fl == float64(i) {
			if Must(i) != Must(fl) {
				t.Fatalf("%d and %v must collapse in untyped mode", i, fl)
			}
		}
	})
}

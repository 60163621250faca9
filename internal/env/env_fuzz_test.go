package env

import (
	"sort"
	"strings"
	"testing"
)

// FuzzMerge feeds random newline-packed K=V lists through Merge and checks
// the structural invariants hold regardless of input shape.
func FuzzMerge(f *testing.F) {
	f.Add([]byte("A=1\nB=${A}-x"), []byte("C=${B}-y"))
	f.Add([]byte("FOO=bar"), []byte("FOO=${FOO}"))
	f.Add([]byte("X=$Y"), []byte("Y=${X}")) // cyclic-like
	f.Add([]byte("NOEQUALS\n=empty"), []byte(""))

	f.Fuzz(func(t *testing.T, globalB, perB []byte) {
		global := splitLines(string(globalB))
		per := splitLines(string(perB))
		if len(global) > 20 {
			global = global[:20]
		}
		if len(per) > 20 {
			per = per[:20]
		}

		e := newIsolated(nil)
		e.SetAll(global)
		out := e.Merge(per)

		// Every entry is K=V with a non-empty key.
		for _, kv := range out {
			if !strings.Contains(kv, "=") {
				t.Fatalf("bad pair: %q", kv)
			}
			if strings.HasPrefix(kv, "=") {
				t.Fatalf("empty key: %q", kv)
			}
		}
		// Output is sorted and deterministic.
		if !sort.StringsAreSorted(out) {
			t.Fatalf("output not sorted: %v", out)
		}
		again := e.Merge(per)
		if strings.Join(out, "\n") != strings.Join(again, "\n") {
			t.Fatalf("merge not deterministic:\n%v\n%v", out, again)
		}
	})
}

func splitLines(s string) []string {
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

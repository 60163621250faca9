package env

import (
	"strings"
	"testing"
)

func newIsolated(base map[string]string) *Env {
	e := New()
	e.env = make(Var)
	for k, v := range base {
		e.env[k] = v
	}
	return e
}

func TestMergePrecedence(t *testing.T) {
	e := newIsolated(map[string]string{"A": "os", "B": "os", "C": "os"})
	e.Set("B", "global")
	e.Set("D", "global")

	got := e.Merge([]string{"C=proc", "E=proc"})
	want := []string{"A=os", "B=global", "C=proc", "D=global", "E=proc"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("merge precedence wrong:\nwant %v\ngot  %v", want, got)
	}
}

func TestMergeExpansion(t *testing.T) {
	e := newIsolated(map[string]string{"HOME": "/home/u"})
	got := e.Merge([]string{"CACHE=${HOME}/cache"})
	found := false
	for _, kv := range got {
		if kv == "CACHE=/home/u/cache" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expansion missing: %v", got)
	}
}

func TestMergeSkipsMalformed(t *testing.T) {
	e := newIsolated(nil)
	got := e.Merge([]string{"NOEQUALS", "=empty", "OK=1"})
	if len(got) != 1 || got[0] != "OK=1" {
		t.Fatalf("malformed entries not skipped: %v", got)
	}
}

func TestSetAll(t *testing.T) {
	e := newIsolated(nil)
	e.SetAll([]string{"X=1", "bogus", "Y=2"})
	got := e.Merge(nil)
	if len(got) != 2 {
		t.Fatalf("SetAll applied wrong vars: %v", got)
	}
}

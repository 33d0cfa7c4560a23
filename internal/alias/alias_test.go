package alias

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type color int

const (
	red color = iota
	green
)

func TestLookup(t *testing.T) {
	tbl := New(map[color][]string{
		red:   {"red", "crimson"},
		green: {"green"},
	})
	for _, in := range []string{"red", "RED", " Crimson ", "cRiM-son"} {
		if v, ok := tbl.Lookup(in); !ok || v != red {
			t.Errorf("Lookup(%q) = %v, %v; want red", in, v, ok)
		}
	}
	if _, ok := tbl.Lookup("blue"); ok {
		t.Error("Lookup(blue) should fail")
	}
	if got := tbl.Name(red); got != "red" {
		t.Errorf("Name(red) = %q, want red", got)
	}
	if d := cmp.Diff([]string{"green", "red"}, tbl.Names()); d != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", d)
	}
}

func TestLookupConcurrent(t *testing.T) {
	tbl := New(map[color][]string{red: {"Straße"}, green: {"green"}})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if v, ok := tbl.Lookup("STRASSE"); !ok || v != red {
					t.Errorf("Lookup(STRASSE) = %v, %v; want red", v, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
}

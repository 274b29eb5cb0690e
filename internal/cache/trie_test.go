// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func newTitleTrie() *Trie {
	trie := NewTrie()
	trie.Insert("Alien (1979)", 40)
	trie.Insert("Aliens (1986)", 55)
	trie.Insert("Alien³ (1992)", 12)
	trie.Insert("Amélie (2001)", 30)
	trie.Insert("Heat (1995)", 55)
	trie.Insert("Airplane! (1980)", 12)
	return trie
}

func TestTrie_Complete(t *testing.T) {
	t.Parallel()

	trie := newTitleTrie()

	tests := []struct {
		name   string
		prefix string
		limit  int
		want   []string
	}{
		{"weight order", "ali", 0, []string{"Aliens (1986)", "Alien (1979)", "Alien³ (1992)"}},
		{"case insensitive", "ALIEN", 0, []string{"Aliens (1986)", "Alien (1979)", "Alien³ (1992)"}},
		{"multibyte prefix", "amé", 0, []string{"Amélie (2001)"}},
		{"limit", "a", 2, []string{"Aliens (1986)", "Alien (1979)"}},
		{"equal weights by title", "", 2, []string{"Aliens (1986)", "Heat (1995)"}},
		{"tie below limit", "a", 0, []string{"Aliens (1986)", "Alien (1979)", "Amélie (2001)", "Airplane! (1980)", "Alien³ (1992)"}},
		{"no match", "zz", 0, nil},
		{"exact title", "heat (1995)", 0, []string{"Heat (1995)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := trie.Complete(tt.prefix, tt.limit)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Complete(%q, %d) = %v, want %v", tt.prefix, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTrie_Insert(t *testing.T) {
	t.Parallel()

	trie := NewTrie()
	if !trie.Insert("Heat (1995)", 1) {
		t.Error("first Insert should report a new entry")
	}
	if trie.Insert("HEAT (1995)", 9) {
		t.Error("Insert differing only in case should update the existing entry")
	}
	if trie.Insert("", 5) {
		t.Error("empty title should be rejected")
	}
	if trie.Len() != 1 {
		t.Errorf("Len() = %d, want 1", trie.Len())
	}
	if got := trie.Complete("heat", 0); len(got) != 1 || got[0] != "HEAT (1995)" {
		t.Errorf("Complete() = %v, want the latest spelling", got)
	}
}

func TestTrie_DefaultLimit(t *testing.T) {
	t.Parallel()

	trie := NewTrie()
	for i := 0; i < DefaultSuggestions+5; i++ {
		trie.Insert(fmt.Sprintf("Movie %02d", i), i)
	}
	got := trie.Complete("movie", -1)
	if len(got) != DefaultSuggestions {
		t.Fatalf("len = %d, want %d", len(got), DefaultSuggestions)
	}
	if got[0] != "Movie 14" {
		t.Errorf("first = %q, want heaviest title Movie 14", got[0])
	}
}

func TestTrie_ConcurrentReads(t *testing.T) {
	t.Parallel()

	trie := newTitleTrie()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := trie.Complete("ali", 1); len(got) != 1 {
					t.Errorf("Complete() = %v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

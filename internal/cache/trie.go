// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"sort"
	"strings"
	"sync"
)

// DefaultSuggestions is the completion limit used when a caller passes none.
const DefaultSuggestions = 10

type trieNode struct {
	children map[rune]*trieNode
	title    string // original spelling, set on terminal nodes
	weight   int
	terminal bool
}

// Trie is a case-insensitive prefix tree over titles, used for autocomplete.
// Completions are ordered by weight, highest first, then by title.
//
// The engine builds one Trie per index snapshot, holding exactly the indexed
// titles, so autocomplete never offers a title that recommendation would
// reject.
type Trie struct {
	mu   sync.RWMutex
	root *trieNode
	size int
}

// NewTrie creates an empty Trie.
func NewTrie() *Trie {
	return &Trie{root: &trieNode{children: make(map[rune]*trieNode)}}
}

// Insert adds title with the given ranking weight. Titles that differ only
// in case share an entry; a repeated insert replaces its spelling and weight.
// It reports whether the entry is new.
func (t *Trie) Insert(title string, weight int) bool {
	if title == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	for _, ch := range strings.ToLower(title) {
		next := node.children[ch]
		if next == nil {
			next = &trieNode{children: make(map[rune]*trieNode)}
			node.children[ch] = next
		}
		node = next
	}

	isNew := !node.terminal
	node.terminal = true
	node.title = title
	node.weight = weight
	if isNew {
		t.size++
	}
	return isNew
}

// Complete returns up to limit titles starting with prefix. An empty prefix
// matches every title. limit <= 0 means DefaultSuggestions.
func (t *Trie) Complete(prefix string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestions
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.root
	for _, ch := range strings.ToLower(prefix) {
		node = node.children[ch]
		if node == nil {
			return nil
		}
	}

	var matches []*trieNode
	collect(node, &matches)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].weight != matches[j].weight {
			return matches[i].weight > matches[j].weight
		}
		return matches[i].title < matches[j].title
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	titles := make([]string, len(matches))
	for i, m := range matches {
		titles[i] = m.title
	}
	return titles
}

func collect(node *trieNode, out *[]*trieNode) {
	if node.terminal {
		*out = append(*out, node)
	}
	for _, child := range node.children {
		collect(child, out)
	}
}

// Len returns the number of distinct titles.
func (t *Trie) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

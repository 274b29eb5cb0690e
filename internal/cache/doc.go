// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package cache provides thread-safe in-memory data structures used on the
request path.

# Overview

  - LRUCache: a generic least-recently-used cache with lazy TTL expiration,
    used for recommendation results keyed by index version and request.
  - Trie: a case-insensitive prefix tree for title autocomplete.
  - GenerateKey: compact hashed keys for arbitrary request parameters.

# Usage Example

	results := cache.NewLRUCache[*Response](10000, 5*time.Minute)
	key := cache.GenerateKey("rec:v1", req)
	if resp, ok := results.Get(key); ok {
	    return resp
	}

	titles := cache.NewTrie()
	titles.Insert("Toy Story (1995)", raters)
	titles.Complete("toy", 5) // ["Toy Story (1995)"]

# Thread Safety

All types are safe for concurrent use.
*/
package cache

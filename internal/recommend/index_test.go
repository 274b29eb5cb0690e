// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"errors"
	"testing"
)

func TestRecommend_ScenarioThreeTitles(t *testing.T) {
	idx := NewIndexFromCorrelation(scenarioCorrelation())

	got, err := RecommendScored(idx, []Seed{{Title: "A", Rating: 5}}, 2)
	if err != nil {
		t.Fatalf("RecommendScored() error = %v", err)
	}

	want := []ScoredTitle{{Title: "B", Score: 2.0}, {Title: "C", Score: -1.25}}
	if len(got) != len(want) {
		t.Fatalf("RecommendScored() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Title != want[i].Title || !almostEqual(got[i].Score, want[i].Score) {
			t.Errorf("RecommendScored()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	titles, err := Recommend(idx, []Seed{{Title: "A", Rating: 5}}, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !equalStrings(titles, []string{"B", "C"}) {
		t.Errorf("Recommend() = %v, want [B C]", titles)
	}
}

func TestRecommend_Errors(t *testing.T) {
	idx := NewIndexFromCorrelation(scenarioCorrelation())

	tests := []struct {
		name        string
		idx         *CollaborativeIndex
		seeds       []Seed
		topN        int
		wantInvalid string
		wantUnknown []string
	}{
		{
			name:        "nil index",
			idx:         nil,
			seeds:       []Seed{{Title: "A", Rating: 5}},
			topN:        1,
			wantInvalid: "index",
		},
		{
			name:        "empty seeds",
			idx:         idx,
			seeds:       []Seed{},
			topN:        10,
			wantInvalid: "seeds",
		},
		{
			name:        "zero topN",
			idx:         idx,
			seeds:       []Seed{{Title: "A", Rating: 5}},
			topN:        0,
			wantInvalid: "top_n",
		},
		{
			name:        "negative topN",
			idx:         idx,
			seeds:       []Seed{{Title: "A", Rating: 5}},
			topN:        -3,
			wantInvalid: "top_n",
		},
		{
			name:        "rating above scale",
			idx:         idx,
			seeds:       []Seed{{Title: "A", Rating: 5}, {Title: "B", Rating: 7}},
			topN:        1,
			wantInvalid: "seeds[1].rating",
		},
		{
			name:        "invalid rating reported before unknown titles",
			idx:         idx,
			seeds:       []Seed{{Title: "Nope", Rating: -1}},
			topN:        1,
			wantInvalid: "seeds[0].rating",
		},
		{
			name:        "all unknown titles batched",
			idx:         idx,
			seeds:       []Seed{{Title: "X", Rating: 4}, {Title: "Y", Rating: 4}},
			topN:        1,
			wantUnknown: []string{"X", "Y"},
		},
		{
			name:        "partially unknown deduplicated in order",
			idx:         idx,
			seeds:       []Seed{{Title: "Z", Rating: 4}, {Title: "A", Rating: 4}, {Title: "Q", Rating: 1}, {Title: "Z", Rating: 2}},
			topN:        1,
			wantUnknown: []string{"Z", "Q"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recommend(tt.idx, tt.seeds, tt.topN)
			if err == nil {
				t.Fatal("Recommend() error = nil, want error")
			}

			if tt.wantInvalid != "" {
				var invalid *InvalidRequestError
				if !errors.As(err, &invalid) {
					t.Fatalf("error = %v (%T), want *InvalidRequestError", err, err)
				}
				if invalid.Field != tt.wantInvalid {
					t.Errorf("Field = %q, want %q", invalid.Field, tt.wantInvalid)
				}
			}

			if tt.wantUnknown != nil {
				var unknown *UnknownItemError
				if !errors.As(err, &unknown) {
					t.Fatalf("error = %v (%T), want *UnknownItemError", err, err)
				}
				if !equalStrings(unknown.Titles, tt.wantUnknown) {
					t.Errorf("Titles = %v, want %v", unknown.Titles, tt.wantUnknown)
				}
			}

			if !IsClientError(err) {
				t.Errorf("IsClientError(%v) = false, want true", err)
			}
		})
	}
}

func TestRecommend_ExcludesSeeds(t *testing.T) {
	idx := NewIndexFromCorrelation(scenarioCorrelation())

	seedSets := [][]Seed{
		{{Title: "A", Rating: 5}},
		{{Title: "A", Rating: 5}, {Title: "B", Rating: 0}},
		{{Title: "C", Rating: 1}, {Title: "C", Rating: 5}},
		{{Title: "A", Rating: 3}, {Title: "B", Rating: 4}, {Title: "C", Rating: 2}},
	}

	for _, seeds := range seedSets {
		for topN := 1; topN <= 4; topN++ {
			got, err := Recommend(idx, seeds, topN)
			if err != nil {
				t.Fatalf("Recommend(%v, %d) error = %v", seeds, topN, err)
			}
			if len(got) > topN {
				t.Errorf("Recommend(%v, %d) returned %d titles", seeds, topN, len(got))
			}
			for _, title := range got {
				for _, seed := range seeds {
					if title == seed.Title {
						t.Errorf("Recommend(%v, %d) = %v, contains seed %q", seeds, topN, got, title)
					}
				}
			}
		}
	}
}

func TestRecommend_ShortResult(t *testing.T) {
	titles := []string{"A", "B", "C", "D", "E"}
	values := [][]float64{
		{1, 0.9, 0.5, -0.2, 0.3},
		{0.9, 1, 0.1, 0.1, 0.1},
		{0.5, 0.1, 1, 0.1, 0.1},
		{-0.2, 0.1, 0.1, 1, 0.1},
		{0.3, 0.1, 0.1, 0.1, 1},
	}
	idx := NewIndexFromCorrelation(NewCorrelationMatrix(titles, values))

	got, err := Recommend(idx, []Seed{{Title: "A", Rating: 4}}, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	want := []string{"B", "C", "E", "D"}
	if !equalStrings(got, want) {
		t.Errorf("Recommend() = %v, want %v", got, want)
	}
}

func TestRecommend_NeutralSeedGivesEmptyResult(t *testing.T) {
	idx := NewIndexFromCorrelation(scenarioCorrelation())

	got, err := Recommend(idx, []Seed{{Title: "A", Rating: NeutralRating}}, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recommend() = %v, want empty", got)
	}
}

func TestRecommend_TieBreakByTitle(t *testing.T) {
	titles := []string{"Seed", "Zulu", "Alpha", "Mike"}
	values := [][]float64{
		{1, 0.5, 0.5, 0.5},
		{0.5, 1, 0, 0},
		{0.5, 0, 1, 0},
		{0.5, 0, 0, 1},
	}
	idx := NewIndexFromCorrelation(NewCorrelationMatrix(titles, values))

	got, err := Recommend(idx, []Seed{{Title: "Seed", Rating: 5}}, 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"Alpha", "Mike", "Zulu"}; !equalStrings(got, want) {
		t.Errorf("Recommend() = %v, want %v", got, want)
	}
}

func TestRecommend_UndefinedContributesZero(t *testing.T) {
	c := buildCorrelation(t, fixtureColumns(), 3)
	idx := NewIndexFromCorrelation(c)

	got, err := RecommendScored(idx, []Seed{{Title: "A", Rating: 5}, {Title: "D", Rating: 5}}, 10)
	if err != nil {
		t.Fatalf("RecommendScored() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("RecommendScored() = %v, want B and C only", got)
	}
	if got[0].Title != "B" || !almostEqual(got[0].Score, 2.5) {
		t.Errorf("got[0] = %+v, want B with 2.5", got[0])
	}
	if got[1].Title != "C" || !almostEqual(got[1].Score, -2.5) {
		t.Errorf("got[1] = %+v, want C with -2.5", got[1])
	}
}

func TestRecommend_WeightMonotonic(t *testing.T) {
	idx := NewIndexFromCorrelation(scenarioCorrelation())

	previous := -1e9
	for _, rating := range []float64{0, 1, 2, 2.5, 3, 4, 5} {
		v, err := Aggregate(idx.corr, []Seed{{Title: "A", Rating: rating}})
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		pos, _ := idx.corr.Position("B")
		score := v.Score(pos)
		if score <= previous {
			t.Errorf("score(B) at rating %v = %v, want > %v", rating, score, previous)
		}
		previous = score
	}
}

func TestRecommend_Idempotent(t *testing.T) {
	records, catalog := tableFixture(fixtureColumns())
	idx, err := BuildCollaborativeIndex(records, catalog, smallIndexConfig())
	if err != nil {
		t.Fatalf("BuildCollaborativeIndex() error = %v", err)
	}

	seeds := []Seed{{Title: "B", Rating: 4}, {Title: "C", Rating: 2}}
	first, err := Recommend(idx, seeds, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Recommend(idx, seeds, 5)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !equalStrings(first, again) {
			t.Fatalf("Recommend() = %v, then %v", first, again)
		}
	}
}

func TestBuildCollaborativeIndex_EndToEnd(t *testing.T) {
	records, catalog := tableFixture(fixtureColumns())

	idx, err := BuildCollaborativeIndex(records, catalog, smallIndexConfig())
	if err != nil {
		t.Fatalf("BuildCollaborativeIndex() error = %v", err)
	}

	if want := []string{"A", "B", "C", "D"}; !equalStrings(idx.Titles(), want) {
		t.Errorf("Titles() = %v, want %v", idx.Titles(), want)
	}
	if idx.Contains("E") {
		t.Error("Contains(E) = true, want false for sparse title")
	}

	stats := idx.Stats()
	if stats.Users != 5 || stats.Titles != 4 || stats.CandidateTitles != 5 || stats.UndefinedTitles != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.JoinedRows != 22 {
		t.Errorf("Stats().JoinedRows = %d, want 22", stats.JoinedRows)
	}
	if idx.Raters("A") != 5 {
		t.Errorf("Raters(A) = %d, want 5", idx.Raters("A"))
	}

	got, err := Recommend(idx, []Seed{{Title: "A", Rating: 5}}, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !equalStrings(got, []string{"B", "C"}) {
		t.Errorf("Recommend() = %v, want [B C]", got)
	}

	_, err = Recommend(idx, []Seed{{Title: "E", Rating: 5}}, 10)
	var unknown *UnknownItemError
	if !errors.As(err, &unknown) {
		t.Errorf("Recommend(E) error = %v, want *UnknownItemError", err)
	}
}

func TestBuildCollaborativeIndex_NineRatersExcluded(t *testing.T) {
	records, catalog := tableFixture(ratersFixture())

	idx, err := BuildCollaborativeIndex(records, catalog, DefaultIndexConfig())
	if err != nil {
		t.Fatalf("BuildCollaborativeIndex() error = %v", err)
	}

	_, err = Recommend(idx, []Seed{{Title: "Nine", Rating: 5}}, 10)
	var unknown *UnknownItemError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownItemError", err)
	}
	if !equalStrings(unknown.Titles, []string{"Nine"}) {
		t.Errorf("Titles = %v, want [Nine]", unknown.Titles)
	}
}

func TestBuildCollaborativeIndex_Degenerate(t *testing.T) {
	records, catalog := tableFixture(map[string][]float64{
		"A": {5, 4},
		"B": {missing, 3},
	})

	idx, err := BuildCollaborativeIndex(records, catalog, DefaultIndexConfig())

	var degenerate *DegenerateIndexError
	if !errors.As(err, &degenerate) {
		t.Fatalf("error = %v, want *DegenerateIndexError", err)
	}
	if degenerate.Users != 2 || degenerate.Titles != 2 || degenerate.MinRaters != 10 {
		t.Errorf("DegenerateIndexError = %+v", degenerate)
	}
	if idx == nil {
		t.Fatal("index = nil, want usable empty index")
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}

	_, err = Recommend(idx, []Seed{{Title: "A", Rating: 5}}, 3)
	var unknown *UnknownItemError
	if !errors.As(err, &unknown) {
		t.Errorf("Recommend() error = %v, want *UnknownItemError", err)
	}
}

func TestBuildCollaborativeIndex_Errors(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		cfg     IndexConfig
		check   func(error) bool
	}{
		{
			name:    "invalid config",
			catalog: Catalog{1: "A"},
			cfg:     IndexConfig{MaxJoinRows: 10, MinRaters: 0},
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "duplicate titles fail loudly",
			catalog: Catalog{1: "A", 2: "A"},
			cfg:     DefaultIndexConfig(),
			check: func(err error) bool {
				var dup *DuplicateTitleError
				return errors.As(err, &dup)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := BuildCollaborativeIndex(nil, tt.catalog, tt.cfg)
			if !tt.check(err) {
				t.Errorf("BuildCollaborativeIndex() error = %v", err)
			}
			if idx != nil {
				t.Errorf("BuildCollaborativeIndex() index = %v, want nil", idx)
			}
		})
	}
}

func TestSelectTop(t *testing.T) {
	v := &ScoreVector{
		titles: []string{"a", "b", "c", "d", "e"},
		scores: []float64{0.5, 0, -0.5, 0.5, 2},
	}

	tests := []struct {
		name    string
		exclude map[string]struct{}
		topN    int
		want    []string
	}{
		{"zero scores dropped, ties by title", nil, 10, []string{"e", "a", "d", "c"}},
		{"truncated", nil, 2, []string{"e", "a"}},
		{"excluded", map[string]struct{}{"e": {}, "a": {}}, 10, []string{"d", "c"}},
		{"non-positive topN", nil, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitlesOf(SelectTop(v, tt.exclude, tt.topN))
			if !equalStrings(got, tt.want) {
				t.Errorf("SelectTop() = %v, want %v", got, tt.want)
			}
		})
	}
}

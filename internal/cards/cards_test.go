package cards

import "testing"

func TestWildRankForRound(t *testing.T) {
	cases := []struct {
		round int
		want  Rank
	}{
		{1, Three},
		{2, Four},
		{7, Nine},
		{8, Ten},
		{9, Jack},
		{10, Queen},
		{11, King},
	}
	for _, c := range cases {
		if got := WildRankForRound(c.round); got != c.want {
			t.Errorf("WildRankForRound(%d) = %s, want %s", c.round, got, c.want)
		}
	}
}

func TestDealSize(t *testing.T) {
	for round := 1; round <= 11; round++ {
		if got := DealSize(round); got != round+2 {
			t.Errorf("DealSize(%d) = %d, want %d", round, got, round+2)
		}
	}
}

func TestDecksFor(t *testing.T) {
	cases := map[int]int{2: 1, 3: 1, 4: 2, 5: 2, 6: 3, 7: 3, 8: 3}
	for n, want := range cases {
		if got := DecksFor(n); got != want {
			t.Errorf("DecksFor(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestNewCompositeDeckUniqueIDs(t *testing.T) {
	deck := NewCompositeDeck(3)
	if len(deck) != 156 {
		t.Fatalf("expected 156 cards for 3 decks, got %d", len(deck))
	}
	seen := make(map[string]bool, len(deck))
	for _, c := range deck {
		if seen[c.ID] {
			t.Fatalf("duplicate card id %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestShufflePreservesMultiset(t *testing.T) {
	deck := NewCompositeDeck(2)
	shuffled := Shuffle(deck)
	if len(shuffled) != len(deck) {
		t.Fatalf("shuffle changed deck size: %d vs %d", len(shuffled), len(deck))
	}
	counts := make(map[string]int, len(deck))
	for _, c := range deck {
		counts[c.ID]++
	}
	for _, c := range shuffled {
		counts[c.ID]--
	}
	for id, n := range counts {
		if n != 0 {
			t.Errorf("card %s count mismatch after shuffle: %d", id, n)
		}
	}
}

func TestFaceValue(t *testing.T) {
	cases := map[Rank]int{Ace: 15, King: 10, Queen: 10, Jack: 10, Ten: 10, Two: 2, Five: 5}
	for r, want := range cases {
		if got := FaceValue(r); got != want {
			t.Errorf("FaceValue(%s) = %d, want %d", r, got, want)
		}
	}
}

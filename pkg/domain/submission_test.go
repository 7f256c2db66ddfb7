package domain

import "testing"

func TestPlayedSet(t *testing.T) {
	games := []PlayedGame{
		{ID: 1, Member: 100, Link: "https://itch.io/jam/jam/rate/111", IsManual: true},
		{ID: 2, Member: 100, Link: "https://itch.io/jam/jam/rate/222", IsManual: false},
		{ID: 3, Member: 200, Link: "https://itch.io/jam/jam/rate/111", IsManual: true},
	}

	set := NewPlayedSet(games)

	if !set.Contains(100, "https://itch.io/jam/jam/rate/111") {
		t.Error("expected member 100 to have played 111")
	}
	if !set.Contains(100, "https://itch.io/jam/jam/rate/222") {
		t.Error("expected member 100 to have played 222")
	}
	if !set.Contains(200, "https://itch.io/jam/jam/rate/111") {
		t.Error("expected member 200 to have played 111")
	}
	if set.Contains(200, "https://itch.io/jam/jam/rate/222") {
		t.Error("expected member 200 to not have played 222")
	}
	if set.Contains(300, "https://itch.io/jam/jam/rate/111") {
		t.Error("expected unknown member to have played nothing")
	}
}

func TestPlayedSet_Empty(t *testing.T) {
	set := NewPlayedSet(nil)

	if set.Contains(100, "anything") {
		t.Error("expected empty set to contain nothing")
	}
}

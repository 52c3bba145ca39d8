package trivia

import "testing"

func TestCategoryName(t *testing.T) {
	tests := map[string]string{
		"24":  "Politics",
		"9":   "General Knowledge",
		"any": "Any Category",
		"":    "Any Category",
		"999": "999",
	}
	for id, want := range tests {
		if got := CategoryName(id); got != want {
			t.Fatalf("CategoryName(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	list := Categories()
	list[0].Name = "mutated"
	if Categories()[0].Name != "Any Category" {
		t.Fatalf("expected package table to be unaffected by caller mutation")
	}
	if len(Difficulties()) != 4 {
		t.Fatalf("expected 4 difficulty options, got %d", len(Difficulties()))
	}
}

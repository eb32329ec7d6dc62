package title

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain", input: "Attack on Titan", want: "attack on titan"},
		{name: "season suffix", input: "Attack on Titan Season 2", want: "attack on titan"},
		{name: "season no space", input: "Attack on Titan season3", want: "attack on titan"},
		{name: "short season", input: "Mob Psycho 100 S2", want: "mob psycho 100"},
		{name: "part", input: "JoJo no Kimyou na Bouken Part 5", want: "jojo no kimyou na bouken"},
		{name: "final season", input: "Shingeki no Kyojin: The Final Season", want: "shingeki no kyojin"},
		{name: "colon subtitle", input: "Title: Subtitle", want: "title"},
		{name: "hyphen subtitle", input: "Re:Zero - Starting Life", want: "re"},
		{name: "en dash", input: "Monogatari – Second Season", want: "monogatari"},
		{name: "surrounding space", input: "  Frieren  ", want: "frieren"},
		{name: "marker exposed after removal", input: "Xsfinal season2", want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Attack on Titan Season 2",
		"Title: Subtitle",
		"Kaguya-sama wa Kokurasetai Part 2",
		"sfinal season2",
		"Sousou no Frieren",
		"  spaced   out  ",
		"Gintama°: Season 4 - Part 1",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestSame(t *testing.T) {
	if !Same("Attack on Titan Season 2", "Attack on Titan") {
		t.Error("expected season sequel to share a key with the first season")
	}
	if !Same("Title: Subtitle", "Title") {
		t.Error("expected subtitle to be dropped")
	}
	if Same("Naruto", "Bleach") {
		t.Error("expected different titles to differ")
	}
}

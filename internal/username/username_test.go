package username

import (
	"reflect"
	"regexp"
	"testing"
)

var validUsername = regexp.MustCompile(`^[a-z0-9-]+$`)

func TestGenerateTwoTokenOrder(t *testing.T) {
	got := Generate("John Doe")
	want := []string{"johndoe", "john-doe", "johnd", "jdoe"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates: got %v want %v", got, want)
	}
}

func TestGenerateSingleToken(t *testing.T) {
	got := Generate("Madonna")
	if !reflect.DeepEqual(got, []string{"madonna"}) {
		t.Fatalf("unexpected candidates: %v", got)
	}
}

func TestGenerateWithMiddleName(t *testing.T) {
	got := Generate("Mary Ann Smith")
	want := []string{"marysmith", "mary-smith", "marys", "msmith", "mary-a-smith"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates: got %v want %v", got, want)
	}
}

func TestDotPatternCollapsesIntoHyphenVariant(t *testing.T) {
	raw := Patterns("John Doe")
	if len(raw) != 5 || raw[4] != "john.doe" {
		t.Fatalf("expected dot variant as fifth raw pattern, got %v", raw)
	}
	for _, candidate := range Generate("John Doe") {
		if candidate == "john.doe" {
			t.Fatalf("dot variant should be normalised away")
		}
	}
}

func TestGenerateStripsPunctuation(t *testing.T) {
	got := Generate("  Seán  O'Brien-Smith, Jr. ")
	if len(got) == 0 {
		t.Fatalf("expected candidates")
	}
	// The apostrophe and trailing dot are dropped.
	if got[0] != "seanjr" {
		t.Fatalf("unexpected first candidate %q in %v", got[0], got)
	}
}

func TestGenerateFoldsDiacritics(t *testing.T) {
	cases := []struct {
		name string
		want []string
	}{
		{"José García", []string{"josegarcia", "jose-garcia", "joseg", "jgarcia"}},
		{"Ángel Núñez", []string{"angelnunez", "angel-nunez", "angeln", "anunez"}},
		{"Zoë Müller", []string{"zoemuller", "zoe-muller", "zoem", "zmuller"}},
		{"François Côté", []string{"francoiscote", "francois-cote", "francoisc", "fcote"}},
	}
	for _, tc := range cases {
		if got := Generate(tc.name); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestGenerateDropsLettersWithoutASCIIBase(t *testing.T) {
	got := Generate("Søren Jørgensen")
	for _, candidate := range got {
		if !validUsername.MatchString(candidate) {
			t.Fatalf("candidate %q in %v is not ASCII", candidate, got)
		}
	}
	if len(got) == 0 || got[0] != "srenjrgensen" {
		t.Fatalf("unexpected candidates %v", got)
	}
}

func TestGenerateEmpty(t *testing.T) {
	if got := Generate("   "); len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", got)
	}
	if got := Generate("!!!"); len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", got)
	}
}

func TestGeneratePropertiesHold(t *testing.T) {
	names := []string{
		"John Doe",
		"Madonna",
		"Mary Ann Smith",
		"Jean-Luc Picard",
		"A B",
		"Ana María de la Cruz",
		"李 Wei Zhang",
		"x",
	}
	for _, name := range names {
		got := Generate(name)
		if len(got) < 1 || len(got) > 6 {
			t.Fatalf("%q: unexpected candidate count %d (%v)", name, len(got), got)
		}
		seen := map[string]bool{}
		for _, candidate := range got {
			if !validUsername.MatchString(candidate) {
				t.Fatalf("%q: invalid candidate %q", name, candidate)
			}
			if seen[candidate] {
				t.Fatalf("%q: duplicate candidate %q in %v", name, candidate, got)
			}
			seen[candidate] = true
		}
	}
}

func TestGenerateSingleLetterTokensDeduplicate(t *testing.T) {
	got := Generate("A B")
	want := []string{"ab", "a-b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates: got %v want %v", got, want)
	}
}

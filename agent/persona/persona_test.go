package persona

import (
	"slices"
	"testing"
)

func TestGenerateStaysInsidePools(t *testing.T) {
	t.Parallel()

	g := NewGenerator(NewRand(42))
	for i := 0; i < 200; i++ {
		p := g.Generate()
		if p.Age < 25 || p.Age > 54 {
			t.Fatalf("Age = %d, want within [25,54]", p.Age)
		}
		if !slices.Contains(names, p.Name) {
			t.Fatalf("unexpected name %q", p.Name)
		}
		if !slices.Contains(professions, p.Profession) {
			t.Fatalf("unexpected profession %q", p.Profession)
		}
		if !slices.Contains(personalities, p.Personality) {
			t.Fatalf("unexpected personality %q", p.Personality)
		}
		if !slices.Contains(situations, p.FinancialSituation) {
			t.Fatalf("unexpected situation %q", p.FinancialSituation)
		}
	}
}

func TestGenerateIsReproducibleForASeed(t *testing.T) {
	t.Parallel()

	a := NewGenerator(NewRand(7))
	b := NewGenerator(NewRand(7))
	for i := 0; i < 10; i++ {
		if pa, pb := a.Generate(), b.Generate(); pa != pb {
			t.Fatalf("run %d: %+v != %+v", i, pa, pb)
		}
	}
}

func TestNamesReturnsCopy(t *testing.T) {
	t.Parallel()

	n := Names()
	n[0] = "X"
	if names[0] == "X" {
		t.Fatal("Names() exposes the shared pool")
	}
}

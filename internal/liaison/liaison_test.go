package liaison

import "testing"

func TestNormalizeOrdersLexicographically(t *testing.T) {
	cases := []struct {
		dep, arr          string
		key, left, right string
	}{
		{"PARIS LYON", "MARSEILLE ST CHARLES", "MARSEILLE ST CHARLES ↔ PARIS LYON", "MARSEILLE ST CHARLES", "PARIS LYON"},
		{"LILLE", "NANTES", "LILLE ↔ NANTES", "LILLE", "NANTES"},
		{"A", "A", "A ↔ A", "A", "A"},
	}
	for _, c := range cases {
		key, left, right := Normalize(c.dep, c.arr)
		if key != c.key || left != c.left || right != c.right {
			t.Fatalf("Normalize(%q, %q) = (%q, %q, %q), want (%q, %q, %q)", c.dep, c.arr, key, left, right, c.key, c.left, c.right)
		}
	}
}

func TestKeyModes(t *testing.T) {
	if got := Key("B", "A", false); got != "B → A" {
		t.Fatalf("directed key = %q", got)
	}
	if Key("B", "A", true) != Key("A", "B", true) {
		t.Fatalf("undirected keys of reversed pair differ")
	}
	if Key("A", "B", true) == Key("A", "B", false) {
		t.Fatalf("directed and undirected keys must differ")
	}
}

func TestEndpoints(t *testing.T) {
	l, r, ok := Endpoints("PARIS → LYON")
	if !ok || l != "PARIS" || r != "LYON" {
		t.Fatalf("Endpoints directed = (%q, %q, %v)", l, r, ok)
	}
	l, r, ok = Endpoints("LYON ↔ PARIS")
	if !ok || l != "LYON" || r != "PARIS" {
		t.Fatalf("Endpoints undirected = (%q, %q, %v)", l, r, ok)
	}
	if _, _, ok := Endpoints("PARIS"); ok {
		t.Fatalf("expected no endpoints for a bare station")
	}
}

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Aix-en-Provence TGV":   "AIX EN PROVENCE TGV",
		"  Saint-Étienne   Châteaucreux": "SAINT ETIENNE CHATEAUCREUX",
		"L’Isle d'Abeau":        "L'ISLE D'ABEAU",
		"PARIS LYON":            "PARIS LYON",
		"":                      "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

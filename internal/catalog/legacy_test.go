package catalog

import (
	"testing"

	"vitrina/internal"
)

func legacyFixture() *internal.Object {
	info := internal.NewObject()
	info.Set("Ropa de Niños", map[string]any{"title": "Ropa infantil", "icon": "🧸"})
	info.Set("hogar", "Hogar")
	info.Set("TECH", map[string]any{"name": "Tecnología", "emoji": "💻", "desc": "Gadgets"})
	info.Set("tech", "Otra tecnología")
	return info
}

func TestLegacyLookup(t *testing.T) {
	r := NewLegacyResolver(legacyFixture())

	cases := []struct {
		name       string
		candidates []string
		wantTitle  string
		wantFound  bool
	}{
		{name: "exact key", candidates: []string{"hogar"}, wantTitle: "Hogar", wantFound: true},
		{name: "slug of key", candidates: []string{"ropa-de-ninos"}, wantTitle: "Ropa infantil", wantFound: true},
		{name: "title text", candidates: []string{"Ropa infantil"}, wantTitle: "Ropa infantil", wantFound: true},
		{name: "lowercase title", candidates: []string{"ROPA INFANTIL"}, wantTitle: "Ropa infantil", wantFound: true},
		{name: "first key wins on collision", candidates: []string{"tech"}, wantTitle: "Tecnología", wantFound: true},
		{name: "later candidate", candidates: []string{"", "nada", "Hogar"}, wantTitle: "Hogar", wantFound: true},
		{name: "miss", candidates: []string{"juguetes"}, wantFound: false},
		{name: "symbols do not match slug fallback", candidates: []string{"!!!"}, wantFound: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta, ok := r.Lookup(tc.candidates...)
			if ok != tc.wantFound {
				t.Fatalf("found=%v want %v", ok, tc.wantFound)
			}
			if ok && meta.Title != tc.wantTitle {
				t.Fatalf("title=%q want %q", meta.Title, tc.wantTitle)
			}
		})
	}
}

func TestLegacyFallbackOrderAndDedup(t *testing.T) {
	r := NewLegacyResolver(legacyFixture())
	got := r.Fallback()
	wantIDs := []string{"ropa-de-ninos", "hogar", "tech", "tech-1"}
	if len(got) != len(wantIDs) {
		t.Fatalf("len=%d", len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("at %d got %q want %q", i, got[i].ID, id)
		}
	}
	if got[2].Name != "Tecnología" || got[2].Icon != "💻" || got[2].Description != "Gadgets" {
		t.Fatalf("tech=%+v", got[2])
	}
}

func TestLegacyResolverEmpty(t *testing.T) {
	r := NewLegacyResolver(nil)
	if _, ok := r.Lookup("ropa"); ok {
		t.Fatal("empty resolver matched")
	}
	if len(r.Fallback()) != 0 {
		t.Fatal("empty resolver has fallback")
	}
}

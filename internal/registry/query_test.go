package registry

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func sampleData() *Data {
	return &Data{
		Name:    "bloktastic",
		Version: "1.0.0",
		Packages: Packages{
			Components: []Entry{
				{Name: "@bloktastic/hero-slider", Path: "components/hero-slider", Title: "Hero Slider", Tags: []string{"hero", "slider"}, Category: strPtr("sections")},
				{Name: "@bloktastic/faq", Path: "components/faq", Title: "FAQ Accordion", Tags: []string{"Accordion"}, Category: strPtr("content")},
			},
			Plugins: []Entry{
				{Name: "@bloktastic/hero-tool", Path: "plugins/hero-tool", Title: "Hero Tool", Tags: []string{"tool"}, Category: strPtr("tool-plugins")},
			},
			Presets: []Entry{
				{Name: "@bloktastic/landing-kit", Path: "presets/landing-kit", Title: "Landing Kit", Tags: []string{"hero"}},
			},
		},
	}
}

func names(pkgs []Package) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func TestSearchKindFilter(t *testing.T) {
	got := sampleData().Search("hero", SearchOptions{Kind: KindComponent})
	if len(got) != 1 || got[0].Name != "@bloktastic/hero-slider" {
		t.Fatalf("Search(hero, component) = %v, want only hero-slider", names(got))
	}
	if got[0].Kind != KindComponent {
		t.Errorf("Kind = %v, want component", got[0].Kind)
	}
}

func TestSearchAllKindsKeepsRegistryOrder(t *testing.T) {
	got := names(sampleData().Search("HERO", SearchOptions{}))
	want := []string{"@bloktastic/hero-slider", "@bloktastic/hero-tool", "@bloktastic/landing-kit"}
	if len(got) != len(want) {
		t.Fatalf("Search(HERO) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearchMatchesTitleAndTagCaseInsensitively(t *testing.T) {
	data := sampleData()

	if got := data.Search("accordion", SearchOptions{}); len(got) != 1 {
		t.Errorf("tag/title match = %v, want faq", names(got))
	}
	if got := data.Search("kit", SearchOptions{}); len(got) != 1 || got[0].Kind != KindPreset {
		t.Errorf("title match = %v, want landing-kit", names(got))
	}
}

func TestSearchCategoryAndTagFilters(t *testing.T) {
	data := sampleData()

	got := data.Search("", SearchOptions{Category: "content"})
	if len(got) != 1 || got[0].Name != "@bloktastic/faq" {
		t.Errorf("category filter = %v", names(got))
	}

	// Entries with a null category never match a category filter.
	if got := data.Search("landing", SearchOptions{Category: "sections"}); len(got) != 0 {
		t.Errorf("null category matched: %v", names(got))
	}

	// The tag filter is exact, unlike the free-text query.
	if got := data.Search("", SearchOptions{Tag: "accordion"}); len(got) != 0 {
		t.Errorf("tag filter should be case-sensitive, got %v", names(got))
	}
	if got := data.Search("", SearchOptions{Tag: "hero"}); len(got) != 2 {
		t.Errorf("tag filter = %v, want hero-slider and landing-kit", names(got))
	}
}

func TestFindScansEveryKind(t *testing.T) {
	data := sampleData()

	pkg, ok := data.Find("@bloktastic/landing-kit")
	if !ok || pkg.Kind != KindPreset {
		t.Fatalf("Find() = %+v, %v", pkg, ok)
	}
	if _, ok := data.Find("@bloktastic/hero"); ok {
		t.Error("Find must match names exactly")
	}
}

func TestAll(t *testing.T) {
	data := sampleData()
	if got := data.All(0); len(got) != 4 {
		t.Errorf("All(0) = %d packages, want 4", len(got))
	}
	if got := data.All(KindPlugin); len(got) != 1 || got[0].Name != "@bloktastic/hero-tool" {
		t.Errorf("All(plugin) = %v", names(got))
	}
}

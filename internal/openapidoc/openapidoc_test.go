package openapidoc

import (
	"testing"
)

func TestGenerateRegistersEveryDocumentedPath(t *testing.T) {
	spec := Generate()
	want := []string{
		"/sites/analyze",
		"/sites/{domain}",
		"/sites/{domain}/history",
		"/sites/{domain}/audit",
		"/sites/{domain}/audit/status/{execution_id}",
		"/competitors/search",
		"/competitors/{domain}",
		"/competitors/{domain}/validate",
		"/scraping/scrape",
		"/trends/analyze",
		"/trends/topics",
		"/articles/training/analyze",
		"/executions/{execution_id}",
		"/healthz",
		"/metrics",
	}
	for _, path := range want {
		if spec.Paths.Find(path) == nil {
			t.Errorf("missing path %q", path)
		}
	}
}

func TestGenerateJSONProducesNonEmptyDocument(t *testing.T) {
	data, err := GenerateJSON()
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty JSON document")
	}
}

func TestValidateResolvesAllRefs(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

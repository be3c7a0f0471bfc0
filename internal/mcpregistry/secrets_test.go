package mcpregistry

import "testing"

func TestInlineSecretWarningsFlagsRawEnvValue(t *testing.T) {
	e := CatalogEntry{
		CatalogID: "global::search",
		Env:       map[string]string{"API_KEY": "sk-live-12345"},
	}
	warnings := InlineSecretWarnings(e)
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestInlineSecretWarningsAllowsEnvReference(t *testing.T) {
	e := CatalogEntry{
		CatalogID: "global::search",
		Env:       map[string]string{"API_KEY": "${SEARCH_API_KEY}"},
	}
	if warnings := InlineSecretWarnings(e); len(warnings) != 0 {
		t.Fatalf("expected no warnings for a secret-manager reference, got %v", warnings)
	}
}

func TestInlineSecretWarningsIgnoresNonSensitiveEnvNames(t *testing.T) {
	e := CatalogEntry{
		CatalogID: "global::search",
		Env:       map[string]string{"LOG_LEVEL": "debug"},
	}
	if warnings := InlineSecretWarnings(e); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestInlineSecretWarningsFlagsRawArgValue(t *testing.T) {
	e := CatalogEntry{
		CatalogID: "global::search",
		Args:      []string{"--token=raw-literal-value"},
	}
	if warnings := InlineSecretWarnings(e); len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestInlineSecretWarningsAllowsArgReference(t *testing.T) {
	e := CatalogEntry{
		CatalogID: "global::search",
		Args:      []string{"--token=${MY_TOKEN}"},
	}
	if warnings := InlineSecretWarnings(e); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

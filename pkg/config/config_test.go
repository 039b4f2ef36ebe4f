package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigLoads(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	if cfg.Graph.MaxNodes <= 0 {
		t.Error("Expected positive max_nodes")
	}
	if cfg.Graph.MaxDepth <= 0 {
		t.Error("Expected positive max_depth")
	}
	if cfg.Export.LimitNodes <= 0 {
		t.Error("Expected positive export limit_nodes")
	}
	if len(cfg.Roles.EntryHTTPAnnotations) == 0 {
		t.Error("Expected HTTP entry annotations")
	}
	if len(cfg.Dependencies.BaselineGroups) == 0 {
		t.Error("Expected dependency baseline groups")
	}
}

func TestEntryKind(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	tests := []struct {
		name        string
		annotations []string
		expected    string
	}{
		{"http mapping", []string{"PostMapping"}, "http"},
		{"kafka listener", []string{"KafkaListener"}, "mq"},
		{"scheduled job", []string{"Scheduled"}, "job"},
		{"http wins over job", []string{"Scheduled", "GetMapping"}, "http"},
		{"plain annotation", []string{"Override"}, ""},
		{"no annotations", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.EntryKind(tt.annotations); got != tt.expected {
				t.Errorf("EntryKind(%v) = %q, want %q", tt.annotations, got, tt.expected)
			}
		})
	}
}

func TestAnnotationSets(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	if !cfg.HasAuthAnnotation([]string{"PreAuthorize"}) {
		t.Error("PreAuthorize should be an auth annotation")
	}
	if cfg.HasAuthAnnotation([]string{"Valid"}) {
		t.Error("Valid should not be an auth annotation")
	}
	if !cfg.HasValidationAnnotation([]string{"Valid"}) {
		t.Error("Valid should be a validation annotation")
	}
	if !cfg.HasRateAnnotation([]string{"RateLimiter"}) {
		t.Error("RateLimiter should be a rate annotation")
	}
}

func TestBodyPatterns(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	if !cfg.MatchesValidateCall("validateOrder(payload);") {
		t.Error("validateOrder( should match the validate pattern")
	}
	if cfg.MatchesValidateCall("invalidate();") {
		t.Error("invalidate( should not match the validate pattern")
	}
	if !cfg.MatchesSanitizeCall("sanitizeInput(raw)") {
		t.Error("sanitizeInput( should match the sanitize pattern")
	}
	if !cfg.SecretWordPattern().MatchString("String apiToken = load();") {
		t.Error("apiToken should match the secret pattern")
	}
	if !cfg.ExceptionLeakPattern().MatchString("return e.getMessage();") {
		t.Error("getMessage() should match the exception leak pattern")
	}
}

func TestSinkKind(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	tests := []struct {
		name       string
		body       string
		kind       string
		privileged bool
		ok         bool
	}{
		{"db statement", "stmt.executeUpdate(sql);", "db", true, true},
		{"file write", "new FileOutputStream(path);", "fs", true, true},
		{"outbound http", "new RestTemplate().getForObject(url);", "http", false, true},
		{"db wins over http", "executeUpdate(sql); new RestTemplate();", "db", true, true},
		{"plain body", "return a + b;", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, privileged, matched := cfg.SinkKind(tt.body)
			if kind != tt.kind || privileged != tt.privileged || matched != tt.ok {
				t.Errorf("SinkKind(%q) = (%q, %v, %v), want (%q, %v, %v)",
					tt.body, kind, privileged, matched, tt.kind, tt.privileged, tt.ok)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("override file wins", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		content := `
[graph]
max_nodes = 7
max_depth = 2
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile failed: %v", err)
		}
		if cfg.Graph.MaxNodes != 7 {
			t.Errorf("Expected max_nodes 7, got %d", cfg.Graph.MaxNodes)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFromFile(filepath.Join(dir, "absent.toml")); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("bad pattern", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		content := `
[patterns]
validate_call = '('
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if _, err := LoadFromFile(path); err == nil {
			t.Error("Expected error for unparseable regex")
		}
	})
}

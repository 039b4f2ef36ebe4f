package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrimSpaceSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "mixed whitespace and content",
			input:    []string{"  hello  ", "", "  world", "test  ", "   "},
			expected: []string{"hello", "world", "test"},
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "all empty/whitespace",
			input:    []string{"", "  ", "   ", "\t"},
			expected: []string{},
		},
		{
			name:     "no trimming needed",
			input:    []string{"hello", "world"},
			expected: []string{"hello", "world"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimSpaceSlice(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("Expected length %d, got %d", len(tt.expected), len(result))
			}
			for i, want := range tt.expected {
				if result[i] != want {
					t.Errorf("Index %d: expected %q, got %q", i, want, result[i])
				}
			}
		})
	}
}

func TestParseCommaDelimited(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple list",
			input:    "node_modules,generated,vendor",
			expected: []string{"node_modules", "generated", "vendor"},
		},
		{
			name:     "spaces around items",
			input:    " a , b ,c ",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "only commas",
			input:    ",,,",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCommaDelimited(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("Expected length %d, got %d", len(tt.expected), len(result))
			}
			for i, want := range tt.expected {
				if result[i] != want {
					t.Errorf("Index %d: expected %q, got %q", i, want, result[i])
				}
			}
		})
	}
}

func TestSafeCreateFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("creates file in allowed directory", func(t *testing.T) {
		path := filepath.Join(dir, "report.json")
		f, err := SafeCreateFile(path)
		if err != nil {
			t.Fatalf("SafeCreateFile(%q) failed: %v", path, err)
		}
		f.Close()
		if !FileExists(path) {
			t.Errorf("Expected file %q to exist", path)
		}
	})

	t.Run("rejects traversal patterns", func(t *testing.T) {
		if _, err := SafeCreateFile(filepath.Join("..", "..", "escape.json")); err == nil {
			t.Error("Expected error for path with traversal pattern")
		}
	})

	t.Run("rejects sensitive system directories", func(t *testing.T) {
		if _, err := SafeCreateFile("/etc/riskweaver.json"); err == nil {
			t.Error("Expected error for sensitive system directory")
		}
	})
}

func TestFileExistsAndDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if !DirectoryExists(dir) {
		t.Errorf("DirectoryExists(%q) = false, want true", dir)
	}
	if DirectoryExists(file) {
		t.Error("DirectoryExists on a file should be false")
	}
	if !FileExists(file) {
		t.Errorf("FileExists(%q) = false, want true", file)
	}
	if FileExists(dir) {
		t.Error("FileExists on a directory should be false")
	}
	if FileExists("") || DirectoryExists("") {
		t.Error("Empty path should never exist")
	}
}

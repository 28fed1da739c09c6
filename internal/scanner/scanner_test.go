package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScannerScan(t *testing.T) {
	// Create a temporary directory structure
	tmpDir := t.TempDir()

	// Create test files
	files := map[string]string{
		"main.c":             "int main(void) { return 0; }",
		"src/parser.cpp":     "int parse() { return 1; }",
		"include/parser.hpp": "int parse();",
		"README.md":          "# Test",
		"scripts/run.py":     "print('hello')",
		".hidden/secret.c":   "int hidden() { return 0; }",
		"build/generated.c":  "int gen() { return 0; }",
		".git/config":        "[core]",
	}

	for path, content := range files {
		fullPath := filepath.Join(tmpDir, path)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		if err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		err = os.WriteFile(fullPath, []byte(content), 0644)
		if err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	// Test scanning with default options
	scanner := New(DefaultOptions())
	results, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// Should find: main.c, src/parser.cpp, include/parser.hpp
	// Should NOT find: README.md and scripts/run.py (extension filter),
	// .hidden/secret.c (hidden), build/generated.c (excluded), .git/config (hidden)
	expectedFiles := map[string]string{
		"main.c":             "c",
		"src/parser.cpp":     "cpp",
		"include/parser.hpp": "cpp",
	}

	foundFiles := make(map[string]bool)
	for _, f := range results {
		foundFiles[f.Path] = true
		if expectedLang, ok := expectedFiles[f.Path]; ok {
			if f.Language != expectedLang {
				t.Errorf("Expected %s to have language %s, got %s", f.Path, expectedLang, f.Language)
			}
		}
	}

	for expected := range expectedFiles {
		if !foundFiles[expected] {
			t.Errorf("Expected to find %s, but it wasn't found", expected)
		}
	}

	// Ensure excluded files are not present
	excludedFiles := []string{
		"README.md",
		"scripts/run.py",
		".hidden/secret.c",
		"build/generated.c",
		".git/config",
	}
	for _, excluded := range excludedFiles {
		if foundFiles[excluded] {
			t.Errorf("Expected %s to be excluded, but it was found", excluded)
		}
	}
}

func TestScannerWithGcxignore(t *testing.T) {
	// Create a temporary directory structure
	tmpDir := t.TempDir()

	// Create .gcxignore file
	gcxignoreContent := `# Ignore generated sources
*.gen.c
# Ignore the legacy tree
legacy/
# Ignore a specific file
scratch.c
`
	err := os.WriteFile(filepath.Join(tmpDir, ".gcxignore"), []byte(gcxignoreContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create .gcxignore: %v", err)
	}

	// Create test files
	files := []string{
		"main.c",
		"lexer.gen.c",
		"legacy/old.c",
		"scratch.c",
		"src/util.c",
	}

	for _, path := range files {
		fullPath := filepath.Join(tmpDir, path)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		if err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		err = os.WriteFile(fullPath, []byte("int f(void) { return 0; }"), 0644)
		if err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	// Test scanning
	scanner := New(DefaultOptions())
	results, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	foundFiles := make(map[string]bool)
	for _, f := range results {
		foundFiles[f.Path] = true
	}

	// Should find
	expectedFiles := []string{"main.c", "src/util.c"}
	for _, expected := range expectedFiles {
		if !foundFiles[expected] {
			t.Errorf("Expected to find %s", expected)
		}
	}

	// Should NOT find (ignored by .gcxignore)
	ignoredFiles := []string{"lexer.gen.c", "legacy/old.c", "scratch.c"}
	for _, ignored := range ignoredFiles {
		if foundFiles[ignored] {
			t.Errorf("Expected %s to be ignored", ignored)
		}
	}
}

func TestScannerSkipHidden(t *testing.T) {
	tmpDir := t.TempDir()

	// Create files
	os.WriteFile(filepath.Join(tmpDir, "visible.c"), []byte("int v;"), 0644)
	os.MkdirAll(filepath.Join(tmpDir, ".hidden"), 0755)
	os.WriteFile(filepath.Join(tmpDir, ".hidden/file.c"), []byte("int h;"), 0644)
	os.WriteFile(filepath.Join(tmpDir, ".dotfile.c"), []byte("int d;"), 0644)

	// Test with SkipHidden = true
	opts := DefaultOptions()
	scanner := New(opts)
	results, _ := scanner.Scan(tmpDir)

	foundHidden := false
	for _, f := range results {
		if f.Path == ".hidden/file.c" || f.Path == ".dotfile.c" {
			foundHidden = true
		}
	}
	if foundHidden {
		t.Error("Should skip hidden files when SkipHidden=true")
	}

	// Test with SkipHidden = false
	opts.SkipHidden = false
	scanner = New(opts)
	results, _ = scanner.Scan(tmpDir)

	foundDotfile := false
	for _, f := range results {
		if f.Path == ".dotfile.c" {
			foundDotfile = true
		}
	}
	if !foundDotfile {
		t.Error("Should find .dotfile.c when SkipHidden=false")
	}
}

func TestScannerExtensionFilter(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"a.c", "b.cpp", "notes.md", "tool.py"} {
		err := os.WriteFile(filepath.Join(tmpDir, name), []byte("content"), 0644)
		if err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	// Default options admit only the configured extensions
	results, err := Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	found := make(map[string]bool)
	for _, f := range results {
		found[f.Path] = true
	}
	if !found["a.c"] || !found["b.cpp"] {
		t.Errorf("Expected a.c and b.cpp to be found, got %v", found)
	}
	if found["notes.md"] || found["tool.py"] {
		t.Errorf("Expected notes.md and tool.py to be filtered out, got %v", found)
	}

	// An empty extension list admits everything
	opts := DefaultOptions()
	opts.Extensions = nil
	results, err = ScanWithOptions(tmpDir, opts)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("Expected 4 files with empty extension filter, got %d", len(results))
	}
}

func TestLanguageDetection(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{".c", "c"},
		{".h", "c"},
		{".cpp", "cpp"},
		{".cc", "cpp"},
		{".cxx", "cpp"},
		{".hpp", "cpp"},
		{".HPP", "cpp"},
		{".m", "objective-c"},
		{".mm", "objective-cpp"},
		{".cu", "cuda"},
		{".ino", "cpp"},
		{".py", ""},
		{".go", ""},
		{".unknown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		result := DetectLanguage(tt.ext)
		if result != tt.expected {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.ext, result, tt.expected)
		}
	}

	if !IsCFamily(".cpp") {
		t.Error("IsCFamily(.cpp) = false, want true")
	}
	if IsCFamily(".rs") {
		t.Error("IsCFamily(.rs) = true, want false")
	}
}

func TestIgnorePattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		match   bool
	}{
		// Simple patterns
		{"*.o", "file.o", true},
		{"*.o", "dir/file.o", true},
		{"*.o", "file.c", false},
		{"build/", "build/file.c", true},
		{"build/", "other/build/file.c", true},
		{"build/", "builder.c", false},

		// Absolute patterns
		{"/build/", "build/file.c", true},
		{"/build/", "src/build/file.c", false},

		// Directory patterns
		{"third_party/", "third_party/pkg/file.c", true},
		{"third_party/", "src/third_party/pkg/file.c", true},

		// Glob patterns
		{"*.gen.c", "lexer.gen.c", true},
		{"*.gen.c", "deep/lexer.gen.c", true},
		{"src/*.c", "src/app.c", true},
		{"src/*.c", "src/deep/app.c", false},

		// Double asterisk
		{"**/test/**", "test/file.c", true},
		{"**/test/**", "src/test/file.c", true},
		{"**/test/**", "src/deep/test/file.c", true},
		{"**/test/**", "testing/file.c", false},

		// Question mark
		{"file?.c", "file1.c", true},
		{"file?.c", "file12.c", false},

		// Negation - pattern matches but is negation
		{"!*.c", "file.c", true}, // Negation pattern still matches the file
	}

	for _, tt := range tests {
		pattern := ParseIgnorePattern(tt.pattern)
		result := pattern.Match(tt.path)
		if result != tt.match {
			t.Errorf("Pattern %q matching %q: got %v, want %v", tt.pattern, tt.path, result, tt.match)
		}
	}
}

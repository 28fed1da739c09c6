package scanner

import (
	"strings"
)

// languageMap maps file extensions to C-family dialects. Headers with the
// bare .h extension are reported as "c" even though many belong to C++
// projects; the analysis pipeline treats both the same way.
var languageMap = map[string]string{
	// C
	".c": "c",
	".h": "c",

	// C++
	".cc":  "cpp",
	".cpp": "cpp",
	".cxx": "cpp",
	".c++": "cpp",
	".hh":  "cpp",
	".hpp": "cpp",
	".hxx": "cpp",
	".h++": "cpp",
	".inl": "cpp",
	".ipp": "cpp",
	".tcc": "cpp",

	// Objective-C
	".m":  "objective-c",
	".mm": "objective-cpp",

	// CUDA
	".cu":  "cuda",
	".cuh": "cuda",

	// Arduino sketches are C++ in disguise
	".ino": "cpp",
}

// DetectLanguage returns the C-family dialect for a given file extension.
// Returns empty string if the extension is not recognized.
func DetectLanguage(ext string) string {
	ext = strings.ToLower(ext)

	if lang, ok := languageMap[ext]; ok {
		return lang
	}

	return ""
}

// IsCFamily reports whether the extension belongs to a recognized dialect.
func IsCFamily(ext string) bool {
	return DetectLanguage(ext) != ""
}

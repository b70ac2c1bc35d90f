package execution

import "strings"

// languages maps code file extensions to the runner's language identifiers.
var languages = map[string]string{
	"js":   "javascript",
	"ts":   "typescript",
	"py":   "python",
	"go":   "go",
	"rb":   "ruby",
	"java": "java",
	"c":    "c",
	"cpp":  "cpp",
	"cs":   "csharp",
	"rs":   "rust",
	"php":  "php",
	"sh":   "bash",
}

// LanguageForExtension resolves a file extension (without the dot) to the
// runner language. The second return is false for unsupported extensions.
func LanguageForExtension(ext string) (string, bool) {
	lang, ok := languages[strings.ToLower(ext)]
	return lang, ok
}

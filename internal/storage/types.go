package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

type Category string

const (
	CategoryVideo Category = "video"
	CategoryPDF   Category = "pdf"
	CategoryEPUB  Category = "epub"
	CategoryText  Category = "text"
)

// contentTypes lists every accepted extension with the type it is served as.
var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mov":  "video/quicktime",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".py":   "text/x-python; charset=utf-8",
	".java": "text/x-java; charset=utf-8",
	".cpp":  "text/x-c++; charset=utf-8",
	".c":    "text/x-c; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json",
	".xml":  "text/xml; charset=utf-8",
	".pdf":  "application/pdf",
	".epub": "application/epub+zip",
}

// mimeExtensions maps accepted MIME types to the extension used when the
// client filename carries none we accept.
var mimeExtensions = map[string]string{
	"video/mp4":                 ".mp4",
	"video/webm":                ".webm",
	"video/ogg":                 ".ogg",
	"video/quicktime":           ".mov",
	"text/plain":                ".txt",
	"text/markdown":             ".md",
	"text/javascript":           ".js",
	"application/javascript":    ".js",
	"text/x-python":             ".py",
	"application/x-python-code": ".py",
	"text/x-java":               ".java",
	"text/x-c++":                ".cpp",
	"text/x-c":                  ".c",
	"application/json":          ".json",
	"text/xml":                  ".xml",
	"text/html":                 ".html",
	"text/css":                  ".css",
	"application/pdf":           ".pdf",
	"application/epub+zip":      ".epub",
}

var codeExtensions = map[string]bool{
	".js": true, ".py": true, ".java": true, ".cpp": true, ".c": true, ".html": true, ".css": true,
}

// AllowedExtension reports whether an upload is accepted and which extension
// its stored name gets. Either the filename extension or the declared MIME
// type has to be on the allow-list.
func AllowedExtension(filename, declaredMime string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := contentTypes[ext]; ok {
		return ext, true
	}
	mt, _, err := mime.ParseMediaType(declaredMime)
	if err != nil {
		return "", false
	}
	if e, ok := mimeExtensions[strings.ToLower(mt)]; ok {
		return e, true
	}
	return "", false
}

func CategoryOf(name string) Category {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".webm", ".ogg", ".mov":
		return CategoryVideo
	case ".pdf":
		return CategoryPDF
	case ".epub":
		return CategoryEPUB
	default:
		return CategoryText
	}
}

// ContentType is the type a stored file is delivered with.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func IsCode(name string) bool {
	return codeExtensions[strings.ToLower(filepath.Ext(name))]
}

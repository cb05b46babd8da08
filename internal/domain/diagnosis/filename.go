package diagnosis

import (
	"path"
	"path/filepath"
	"strings"
	"time"
)

// AllowedExtensions is the upload whitelist, matched case-insensitively.
var AllowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

const storedNameLayout = "20060102_150405"

// AllowedFile reports whether the filename carries a whitelisted extension.
func AllowedFile(name string) bool {
	return AllowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// SanitizeFilename strips path components and unsafe characters so the
// result is safe to use as a single path element.
func SanitizeFilename(name string) string {
	// normalize Windows separators before taking the base
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// StoredName validates the client filename and builds the unique storage
// name: a YYYYMMDD_HHMMSS timestamp prefix followed by the sanitized
// original name.
func StoredName(now time.Time, original string) (string, error) {
	if strings.TrimSpace(original) == "" {
		return "", ErrEmptyFilename
	}
	if !AllowedFile(original) {
		return "", ErrUnsupportedType
	}
	clean := SanitizeFilename(original)
	if base := strings.TrimSuffix(clean, filepath.Ext(clean)); base == "" || !AllowedFile(clean) {
		// sanitization ate the whole base name (e.g. non-latin input)
		return "", ErrInvalidFilename
	}
	return now.Format(storedNameLayout) + "_" + clean, nil
}

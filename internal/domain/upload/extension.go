package upload

import "strings"

// FileExtension returns the lower-cased text after the last dot of filename,
// or "" when there is no dot.
func FileExtension(filename string) string {
	filename = strings.ToLower(filename)
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return filename[i+1:]
}

// AllowListSource supplies the file extensions a kind of upload accepts.
type AllowListSource interface {
	AllowedExtensions() []string
}

// StaticAllowList is an AllowListSource backed by a fixed list.
type StaticAllowList []string

func (l StaticAllowList) AllowedExtensions() []string { return l }

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(a), "."), ext) {
			return true
		}
	}
	return false
}

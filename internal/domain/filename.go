package domain

import "regexp"

// DefaultFileName is used when a requested name is missing or sanitises to nothing.
const DefaultFileName = "document"

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeFileName strips everything outside [A-Za-z0-9_-] and appends ".pdf".
func SanitizeFileName(name string) string {
	clean := unsafeFileNameChars.ReplaceAllString(name, "")
	if clean == "" {
		clean = DefaultFileName
	}
	return clean + ".pdf"
}

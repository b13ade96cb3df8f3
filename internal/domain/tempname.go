package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

// TempPrefix marks staged temporaries. A staging name is
// TempPrefix + 32 lowercase hex + "__" + original name.
const TempPrefix = "__TMP__"

var tempNamePattern = regexp.MustCompile(`^__TMP__([0-9a-f]{32})__(.+)$`)

// TempName builds the staging name for original using an opaque token
// (32 lowercase hex characters).
func TempName(token, original string) string {
	return TempPrefix + token + "__" + original
}

// IsTempName reports whether name follows the staging convention
func IsTempName(name string) bool {
	return tempNamePattern.MatchString(name)
}

// OriginalFromTemp extracts the original file name from a staging name
func OriginalFromTemp(name string) (string, bool) {
	m := tempNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// LowerExt returns the lowercased extension of path, including the dot
func LowerExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

package collector

import "strings"

// Normalize turns a root-relative path into an archive-relative one by
// dropping the first segment, the directory the user selected.
// "projectRoot/src/app.js" becomes "src/app.js".
//
// A path with a single segment has no folder prefix and is returned as is,
// so a directly selected file keeps its base name instead of collapsing to
// an empty key.
func Normalize(rootRelativePath string) string {
	p := strings.ReplaceAll(rootRelativePath, "\\", "/")
	segments := strings.Split(p, "/")
	if len(segments) <= 1 {
		return p
	}
	return strings.Join(segments[1:], "/")
}

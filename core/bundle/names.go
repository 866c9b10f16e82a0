package bundle

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
)

const (
	requirementDir = "requirement"
	filesDir       = requirementDir + "/files"
	submissionsDir = "submissions"
)

// CleanName makes s safe to use as a single archive path element.
func CleanName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, ". ")
	return s
}

// withExtension adds the extension detected from data when name has none.
func withExtension(name string, data []byte) string {
	if path.Ext(name) != "" {
		return name
	}
	return name + mimetype.Detect(data).Extension()
}

// entryNamer hands out unique archive paths. A taken path gets a "_<n>" suffix
// before its extension.
type entryNamer struct {
	used map[string]bool
}

func newEntryNamer() *entryNamer {
	return &entryNamer{used: make(map[string]bool)}
}

func (n *entryNamer) next(dir, name string) string {
	ext := path.Ext(name)
	if strings.HasSuffix(name, noFileSuffix) {
		ext = noFileSuffix
	}
	base := strings.TrimSuffix(name, ext)

	candidate := path.Join(dir, name)
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		candidate = path.Join(dir, base+"_"+strconv.Itoa(i)+ext)
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

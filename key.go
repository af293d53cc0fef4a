package texcache

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key returns the canonical resource key for a texture path.
//
// Model files reference textures with backslash separators regardless of
// platform, so both separators are accepted. Keys are cleaned, use forward
// slashes and are NFC-normalized: "Tex\\顔.png" and "./tex/../Tex/顔.png"
// in NFD form map to one cache entry. Every Cache method canonicalizes its
// key argument; callers only need Key to compare or store keys themselves.
func Key(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
	return norm.NFC.String(path.Clean(p))
}

// Package jobstore derives cache keys for queries and persists job records.
package jobstore

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DeriveKey returns the cache path for a query. Parameters are visited in
// sorted key order and empty values are skipped, so requests that differ
// only by ordering or punctuation share a key.
func DeriveKey(root, queryName string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{queryName}
	for _, k := range keys {
		v := params[k]
		if v == "" {
			continue
		}
		parts = append(parts, Sanitize(v))
	}

	name := strings.Join(parts, "_") + ".json"
	if root == "" {
		return name
	}
	return path.Join(filepath.ToSlash(root), name)
}

// Sanitize folds accents, lowercases and drops anything that is not a
// letter or digit. Letters outside the Latin script are kept, so 李明 and
// 王芳 do not collapse onto the same key.
func Sanitize(s string) string {
	folded, _, err := transform.String(foldAccents(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

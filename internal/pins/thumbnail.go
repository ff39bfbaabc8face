package pins

import (
	"regexp"
	"strings"
)

var blockNumber = regexp.MustCompile(`\d+`)

// thumbnailRules are substring fallbacks in priority order. Each maps a
// fragment of the name to a key of the thumbnail table.
var thumbnailRules = []struct {
	fragment string
	key      string
}{
	{"quadra de areia", "quadra de areia"},
	{"areia", "quadra de areia"},
	{"quadra", "quadra"},
	{"campo", "campo"},
	{"estacionamento", "estacionamento"},
	{"biblioteca", "biblioteca"},
	{"cantina", "cantina"},
	{"audit", "auditório"},
	{"cores", "cores"},
	{"entrada", "entrada"},
}

// Thumbnails resolves the representative image of a location.
type Thumbnails struct {
	table map[string]string
}

// NewThumbnails creates a resolver over a lowercase name -> image table.
func NewThumbnails(table map[string]string) *Thumbnails {
	return &Thumbnails{table: table}
}

// Lookup returns the thumbnail for a location name. An exact match wins;
// otherwise block names match on their number and the remaining rules match
// on substrings.
func (t *Thumbnails) Lookup(name string) (string, bool) {
	lower := normalizeName(name)
	if lower == "" {
		return "", false
	}
	if img, ok := t.table[lower]; ok {
		return img, true
	}

	if strings.Contains(lower, "bloco") {
		for _, n := range blockNumber.FindAllString(lower, -1) {
			if img, ok := t.table["bloco "+strings.TrimLeft(n, "0")]; ok {
				return img, true
			}
		}
	}

	for _, r := range thumbnailRules {
		if !strings.Contains(lower, r.fragment) {
			continue
		}
		if img, ok := t.table[r.key]; ok {
			return img, true
		}
	}
	return "", false
}

package media

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// shortKeywordLen is the longest keyword that must match a whole word.
// "am", "fm", "tv" and "web" would otherwise match inside ordinary words.
const shortKeywordLen = 3

// suffixKeywords may also close a longer word ("MegaTV", "Oasisfm"). "am" is
// left out: Spanish and brand names end in it too often ("Instagram").
var suffixKeywords = map[string]bool{"fm": true, "tv": true}

// Normalize lower-cases s, folds accents ("Televisión" -> "television")
// and collapses punctuation and repeated whitespace into single spaces.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(fields(s), " "))
}

// fields folds accents and splits s on everything but letters and digits,
// keeping the original case
func fields(s string) []string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// pieces splits a word where letters meet digits ("93.3FM" gives "3FM" then
// "3", "FM") and where a lower-case letter is followed by an upper-case one
// ("RadioAM" gives "Radio", "AM").
func pieces(word string) []string {
	var out []string
	rs := []rune(word)
	start := 0
	for i := 1; i < len(rs); i++ {
		prev, cur := rs[i-1], rs[i]
		if unicode.IsDigit(prev) != unicode.IsDigit(cur) ||
			(unicode.IsLower(prev) && unicode.IsUpper(cur)) {
			out = append(out, string(rs[start:i]))
			start = i
		}
	}
	return append(out, string(rs[start:]))
}

// Identifier is a normalized free-text name prepared for keyword tests
type Identifier struct {
	text  string
	words map[string]struct{}
}

// NewIdentifier normalizes raw and indexes its words, along with the pieces
// of words that glue letters to digits or change case midway
func NewIdentifier(raw string) Identifier {
	fs := fields(raw)
	words := make(map[string]struct{})
	for _, f := range fs {
		words[strings.ToLower(f)] = struct{}{}
		for _, p := range pieces(f) {
			words[strings.ToLower(p)] = struct{}{}
		}
	}
	return Identifier{text: strings.ToLower(strings.Join(fs, " ")), words: words}
}

// String returns the normalized text
func (id Identifier) String() string {
	return id.text
}

// Contains tests a single keyword. Keywords of up to three letters match whole
// words or word pieces only, and "fm" and "tv" also the end of a word; longer
// keywords (including multi-word ones) match as substrings.
func (id Identifier) Contains(keyword string) bool {
	keyword = Normalize(keyword)
	if keyword == "" {
		return false
	}
	if len(keyword) > shortKeywordLen || strings.Contains(keyword, " ") {
		return strings.Contains(id.text, keyword)
	}
	if _, ok := id.words[keyword]; ok {
		return true
	}
	if suffixKeywords[keyword] {
		for w := range id.words {
			if strings.HasSuffix(w, keyword) {
				return true
			}
		}
	}
	return false
}

// ContainsAny reports whether any of the keywords is contained
func (id Identifier) ContainsAny(keywords ...string) bool {
	for _, k := range keywords {
		if id.Contains(k) {
			return true
		}
	}
	return false
}

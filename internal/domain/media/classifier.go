package media

import "github.com/adplan/backend/internal/domain/shared"

// Rule maps a support identifier to a media category.
// Keywords form the predicate: the rule matches when the identifier contains
// any of them. MediaTokens, in priority order, select the media record whose
// display name carries the category (e.g. "fm" for FM radio).
type Rule struct {
	Name        string
	Category    Category
	Keywords    []string
	MediaTokens []string
}

// Matches reports whether the rule's predicate holds for the identifier
func (r Rule) Matches(id Identifier) bool {
	return id.ContainsAny(r.Keywords...)
}

// DefaultRules returns the built-in rule order. More specific rules come first:
// "cable" before generic TV, "fm"/"am" before generic radio.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "cable", Category: CategoryTV, Keywords: []string{"cable"}, MediaTokens: []string{"cable"}},
		{Name: "tv", Category: CategoryTV, Keywords: []string{"tv", "television", "canal"}, MediaTokens: []string{"abierta", "television", "tv"}},
		{Name: "fm", Category: CategoryRadio, Keywords: []string{"fm"}, MediaTokens: []string{"fm"}},
		{Name: "am", Category: CategoryRadio, Keywords: []string{"am"}, MediaTokens: []string{"am"}},
		{Name: "radio", Category: CategoryRadio, Keywords: []string{"radio", "emisora"}, MediaTokens: []string{"radio"}},
		{Name: "diario", Category: CategoryPrint, Keywords: []string{"diario", "periodico", "prensa"}, MediaTokens: []string{"diario", "prensa"}},
		{Name: "revista", Category: CategoryPrint, Keywords: []string{"revista"}, MediaTokens: []string{"revista"}},
		{Name: "digital", Category: CategoryDigital, Keywords: []string{"internet", "redes", "digital", "streaming", "web", "online"}, MediaTokens: []string{"digital", "internet", "redes"}},
		{Name: "cine", Category: CategoryCinema, Keywords: []string{"cine"}, MediaTokens: []string{"cine"}},
		{Name: "exterior", Category: CategoryOutdoor, Keywords: []string{"transporte", "via publica", "exterior", "metro"}, MediaTokens: []string{"via publica", "exterior", "transporte"}},
	}
}

// FallbackRule names resolutions that matched no rule
const FallbackRule = "fallback"

// Resolution is the outcome of resolving a support identifier to a media record
type Resolution struct {
	Media      Media
	Category   Category
	Rule       string
	Fallback   bool   // true when no rule resolved and the first media was used
	Normalized string // normalized identifier that was tested
}

// Classifier evaluates rules top to bottom with a defined default
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules, or DefaultRules when none are given
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Resolve picks the media record for a support identifier.
//
// The first rule that matches the identifier and whose tokens appear in some
// media name wins; within a rule, tokens are tried in order and media in
// iteration order. A matching rule with no media carrying its tokens falls
// through to the next rule. When nothing resolves, the first media is used.
func (c *Classifier) Resolve(identifier string, candidates []Media) (Resolution, error) {
	if len(candidates) == 0 {
		return Resolution{}, shared.ErrNoMedia
	}

	id := NewIdentifier(identifier)
	names := make([]Identifier, len(candidates))
	for i, m := range candidates {
		names[i] = NewIdentifier(m.Name)
	}

	for _, r := range c.rules {
		if !r.Matches(id) {
			continue
		}
		for _, token := range r.MediaTokens {
			for i, name := range names {
				if name.Contains(token) {
					return Resolution{
						Media:      candidates[i],
						Category:   r.Category,
						Rule:       r.Name,
						Normalized: id.String(),
					}, nil
				}
			}
		}
	}

	category := candidates[0].Category
	if category == "" {
		category = CategoryUnknown
	}
	return Resolution{
		Media:      candidates[0],
		Category:   category,
		Rule:       FallbackRule,
		Fallback:   true,
		Normalized: id.String(),
	}, nil
}

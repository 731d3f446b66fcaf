package emotes

import (
	"regexp"
	"strings"
)

// Descriptor identifies a single third-party emote: the literal token that chatters
// type, plus the image the UI should render in its place
type Descriptor struct {
	Name   string `json:"name"`
	Url    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RuleSet is the compiled form of a channel's emote set: a name lookup table plus a
// single alternation pattern that locates emote occurrences in raw message text. A
// RuleSet is immutable once built; a channel with no emotes gets a nil matcher, which
// never reports a match
type RuleSet struct {
	byName  map[string]Descriptor
	matcher *regexp.Regexp
}

func newRuleSet(descriptors []Descriptor) *RuleSet {
	byName := make(map[string]Descriptor, len(descriptors))
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if _, exists := byName[d.Name]; exists {
			continue
		}
		byName[d.Name] = d
		names = append(names, d.Name)
	}
	return &RuleSet{
		byName:  byName,
		matcher: compileMatcher(names),
	}
}

// Lookup resolves a single token to its emote descriptor, if that token is an exact
// emote name
func (r *RuleSet) Lookup(token string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	d, ok := r.byName[token]
	return d, ok
}

// Match locates one emote-name occurrence within a larger piece of text
type Match struct {
	Name  string
	Start int
	End   int
}

// FindAll returns every emote-name occurrence in the given text, in order; emote
// names are matched on word boundaries, so a name directly adjacent to punctuation
// still counts
func (r *RuleSet) FindAll(text string) []Match {
	if r == nil || r.matcher == nil {
		return nil
	}
	spans := r.matcher.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(spans))
	for _, span := range spans {
		matches = append(matches, Match{
			Name:  text[span[0]:span[1]],
			Start: span[0],
			End:   span[1],
		})
	}
	return matches
}

// Len returns the number of distinct emote names in the set
func (r *RuleSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byName)
}

// compileMatcher joins the escaped emote names into one word-bounded alternation, or
// returns nil when there are no names to match
func compileMatcher(names []string) *regexp.Regexp {
	if len(names) == 0 {
		return nil
	}
	escaped := make([]string, 0, len(names))
	for _, name := range names {
		escaped = append(escaped, escapeEmoteName(name))
	}
	return regexp.MustCompile(`\b(` + strings.Join(escaped, "|") + `)\b`)
}

// escapeEmoteName makes an emote name safe to embed in a pattern: names are arbitrary
// user-facing tokens and may contain characters that the regexp language would
// otherwise interpret (e.g. "C++Fan")
func escapeEmoteName(name string) string {
	return regexp.QuoteMeta(name)
}

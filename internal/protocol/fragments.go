package protocol

import (
	"regexp"
	"strings"

	"github.com/own-c/rt/internal/emotes"
)

// urlRegex spots link-shaped tokens in chat text so the UI can render them as anchors
var urlRegex = regexp.MustCompile(`(https?://)?(www\.)?[a-zA-Z0-9-]{1,256}\.[a-zA-Z0-9]{2,}(/\S*)?`)

// SplitFragments breaks plain message text into typed fragments: link-shaped tokens
// become URL fragments, emote-name occurrences located by the rule set's compiled
// matcher become emote fragments (even mid-token, e.g. a name followed by
// punctuation), and everything else is coalesced into text fragments
func SplitFragments(text string, rules *emotes.RuleSet) []Fragment {
	fragments := make([]Fragment, 0, 4)
	appendText := func(s string) {
		if len(fragments) > 0 && fragments[len(fragments)-1].Kind == FragmentKindText {
			fragments[len(fragments)-1].Content += " " + s
			return
		}
		fragments = append(fragments, Fragment{Kind: FragmentKindText, Content: s})
	}

	for _, token := range strings.Fields(text) {
		if urlRegex.MatchString(token) {
			fragments = append(fragments, Fragment{Kind: FragmentKindUrl, Content: token})
			continue
		}
		matches := rules.FindAll(token)
		if len(matches) == 0 {
			appendText(token)
			continue
		}
		cursor := 0
		for _, match := range matches {
			if match.Start > cursor {
				appendText(token[cursor:match.Start])
			}
			d, _ := rules.Lookup(match.Name)
			fragments = append(fragments, Fragment{
				Kind:    FragmentKindEmote,
				Content: match.Name,
				Emote:   &d,
			})
			cursor = match.End
		}
		if cursor < len(token) {
			appendText(token[cursor:])
		}
	}
	return fragments
}

// Refragment re-splits an event's text fragments against the given emote rules,
// leaving already-typed fragments untouched. Called once per decoded event, after the
// decoder and before the event is published to the UI
func Refragment(event *Event, rules *emotes.RuleSet) {
	if event == nil || event.Message == nil {
		return
	}
	rebuilt := make([]Fragment, 0, len(event.Message.Fragments))
	for _, fragment := range event.Message.Fragments {
		if fragment.Kind == FragmentKindText {
			rebuilt = append(rebuilt, SplitFragments(fragment.Content, rules)...)
		} else {
			rebuilt = append(rebuilt, fragment)
		}
	}
	event.Message.Fragments = rebuilt
}

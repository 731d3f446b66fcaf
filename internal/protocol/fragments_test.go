package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/own-c/rt/internal/emotes"
)

func Test_SplitFragments(t *testing.T) {
	cache := emotes.NewCache()
	rules := cache.Prime("somechannel", []emotes.Descriptor{
		{Name: "peepoHappy", Url: "https://cdn.example.com/peepo/1x", Width: 28, Height: 28},
		{Name: "FrankerZ", Url: "https://cdn.example.com/frankerz/1x", Width: 28, Height: 28},
	})

	tests := []struct {
		name string
		text string
		want []Fragment
	}{
		{
			"plain words coalesce into one text fragment",
			"hello there chat",
			[]Fragment{
				{Kind: FragmentKindText, Content: "hello there chat"},
			},
		},
		{
			"emote tokens become their own fragments",
			"hello peepoHappy there",
			[]Fragment{
				{Kind: FragmentKindText, Content: "hello"},
				{Kind: FragmentKindEmote, Content: "peepoHappy", Emote: &emotes.Descriptor{Name: "peepoHappy", Url: "https://cdn.example.com/peepo/1x", Width: 28, Height: 28}},
				{Kind: FragmentKindText, Content: "there"},
			},
		},
		{
			"adjacent emotes each get a fragment",
			"peepoHappy FrankerZ",
			[]Fragment{
				{Kind: FragmentKindEmote, Content: "peepoHappy", Emote: &emotes.Descriptor{Name: "peepoHappy", Url: "https://cdn.example.com/peepo/1x", Width: 28, Height: 28}},
				{Kind: FragmentKindEmote, Content: "FrankerZ", Emote: &emotes.Descriptor{Name: "FrankerZ", Url: "https://cdn.example.com/frankerz/1x", Width: 28, Height: 28}},
			},
		},
		{
			"emotes adjacent to punctuation are still picked out",
			"nice FrankerZ! wow",
			[]Fragment{
				{Kind: FragmentKindText, Content: "nice"},
				{Kind: FragmentKindEmote, Content: "FrankerZ", Emote: &emotes.Descriptor{Name: "FrankerZ", Url: "https://cdn.example.com/frankerz/1x", Width: 28, Height: 28}},
				{Kind: FragmentKindText, Content: "! wow"},
			},
		},
		{
			"link-shaped tokens become url fragments",
			"check https://example.com/clip out",
			[]Fragment{
				{Kind: FragmentKindText, Content: "check"},
				{Kind: FragmentKindUrl, Content: "https://example.com/clip"},
				{Kind: FragmentKindText, Content: "out"},
			},
		},
		{
			"bare domains count as urls",
			"example.com",
			[]Fragment{
				{Kind: FragmentKindUrl, Content: "example.com"},
			},
		},
		{
			"empty text yields no fragments",
			"   ",
			[]Fragment{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitFragments(tt.text, rules))
		})
	}

	t.Run("nil rules classify everything as text or url", func(t *testing.T) {
		got := SplitFragments("hello peepoHappy", nil)
		assert.Equal(t, []Fragment{
			{Kind: FragmentKindText, Content: "hello peepoHappy"},
		}, got)
	})
}

func Test_Refragment(t *testing.T) {
	cache := emotes.NewCache()
	rules := cache.Prime("somechannel", []emotes.Descriptor{
		{Name: "FrankerZ", Url: "https://cdn.example.com/frankerz/1x", Width: 28, Height: 28},
	})

	event := &Event{
		Type: EventTypeMessage,
		Message: &Message{
			Sender: "alice",
			Fragments: []Fragment{
				{Kind: FragmentKindText, Content: "nice dog FrankerZ"},
			},
		},
	}
	Refragment(event, rules)
	assert.Equal(t, []Fragment{
		{Kind: FragmentKindText, Content: "nice dog"},
		{Kind: FragmentKindEmote, Content: "FrankerZ", Emote: &emotes.Descriptor{Name: "FrankerZ", Url: "https://cdn.example.com/frankerz/1x", Width: 28, Height: 28}},
	}, event.Message.Fragments)

	t.Run("nil events and messages are tolerated", func(t *testing.T) {
		Refragment(nil, rules)
		Refragment(&Event{Type: EventTypeMessage}, rules)
	})
}

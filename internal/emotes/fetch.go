package emotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	seventvApiUrl  = "https://7tv.io/v3"
	bettertvApiUrl = "https://api.betterttv.net/3"
)

// Fetcher resolves a channel's third-party emote set by querying the 7TV and
// BetterTTV APIs, keyed by the channel's Twitch user ID
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// GetEmotes returns the combined emote set for the given channel. Each provider is
// queried best-effort: a single provider failing only shrinks the result, and an error
// is returned only if both providers fail
func (f *Fetcher) GetEmotes(ctx context.Context, twitchUserId string) ([]Descriptor, error) {
	seventvEmotes, seventvErr := f.getSeventvEmotes(ctx, twitchUserId)
	if seventvErr != nil {
		fmt.Printf("Failed to fetch 7TV emotes for user %s: %v\n", twitchUserId, seventvErr)
	}
	bettertvEmotes, bettertvErr := f.getBettertvEmotes(ctx, twitchUserId)
	if bettertvErr != nil {
		fmt.Printf("Failed to fetch BetterTTV emotes for user %s: %v\n", twitchUserId, bettertvErr)
	}
	if seventvErr != nil && bettertvErr != nil {
		return nil, fmt.Errorf("failed to fetch emotes: %v; %v", seventvErr, bettertvErr)
	}
	return append(seventvEmotes, bettertvEmotes...), nil
}

type seventvResponse struct {
	EmoteSet struct {
		Emotes []struct {
			Name string `json:"name"`
			Data struct {
				Host struct {
					Url   string `json:"url"`
					Files []struct {
						Name   string `json:"name"`
						Width  int    `json:"width"`
						Height int    `json:"height"`
						Format string `json:"format"`
					} `json:"files"`
				} `json:"host"`
			} `json:"data"`
		} `json:"emotes"`
	} `json:"emote_set"`
}

func (f *Fetcher) getSeventvEmotes(ctx context.Context, twitchUserId string) ([]Descriptor, error) {
	var payload seventvResponse
	url := fmt.Sprintf("%s/users/twitch/%s", seventvApiUrl, twitchUserId)
	if err := f.getJson(ctx, url, &payload); err != nil {
		return nil, err
	}

	descriptors := make([]Descriptor, 0, len(payload.EmoteSet.Emotes))
	for _, emote := range payload.EmoteSet.Emotes {
		// Each emote is hosted in several formats at several scales: take the 1x file
		// in the most broadly-supported format available
		bestPriority := -1
		bestFileIndex := -1
		for i, file := range emote.Data.Host.Files {
			if len(file.Name) == 0 || file.Name[0] != '1' {
				continue
			}
			priority := formatPriority(file.Format)
			if priority < 0 {
				continue
			}
			if bestFileIndex < 0 || priority < bestPriority {
				bestPriority = priority
				bestFileIndex = i
			}
		}
		if bestFileIndex < 0 {
			continue
		}
		file := emote.Data.Host.Files[bestFileIndex]
		descriptors = append(descriptors, Descriptor{
			Name:   emote.Name,
			Url:    fmt.Sprintf("https:%s/%s", emote.Data.Host.Url, file.Name),
			Width:  file.Width,
			Height: file.Height,
		})
	}
	return descriptors, nil
}

type bettertvResponse struct {
	ChannelEmotes []bettertvEmote `json:"channelEmotes"`
	SharedEmotes  []bettertvEmote `json:"sharedEmotes"`
}

type bettertvEmote struct {
	Id     string `json:"id"`
	Code   string `json:"code"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (f *Fetcher) getBettertvEmotes(ctx context.Context, twitchUserId string) ([]Descriptor, error) {
	var payload bettertvResponse
	url := fmt.Sprintf("%s/cached/users/twitch/%s", bettertvApiUrl, twitchUserId)
	if err := f.getJson(ctx, url, &payload); err != nil {
		return nil, err
	}

	raw := append(payload.ChannelEmotes, payload.SharedEmotes...)
	descriptors := make([]Descriptor, 0, len(raw))
	for _, emote := range raw {
		width := emote.Width
		if width == 0 {
			width = 28
		}
		height := emote.Height
		if height == 0 {
			height = 28
		}
		descriptors = append(descriptors, Descriptor{
			Name:   emote.Code,
			Url:    fmt.Sprintf("https://cdn.betterttv.net/emote/%s/1x", emote.Id),
			Width:  width,
			Height: height,
		})
	}
	return descriptors, nil
}

func (f *Fetcher) getJson(ctx context.Context, url string, payload any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("got status %d from %s", res.StatusCode, url)
	}
	return json.NewDecoder(res.Body).Decode(payload)
}

func formatPriority(format string) int {
	switch format {
	case "AVIF":
		return 0
	case "WEBP":
		return 1
	case "PNG":
		return 2
	case "GIF":
		return 3
	}
	return -1
}

package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nicklaw5/helix/v2"
)

// ErrNotFound indicates that the requested channel does not exist on Twitch
var ErrNotFound = errors.New("channel not found")

// Stream describes a channel and its current broadcast, if one is live. For a known
// but offline channel, the descriptor carries user details with Live set to false
type Stream struct {
	Channel     string    `json:"channel"`
	UserId      string    `json:"userId"`
	Title       string    `json:"title"`
	Game        string    `json:"game"`
	ViewerCount int       `json:"viewerCount"`
	StartedAt   time.Time `json:"startedAt"`
	PlaybackUrl string    `json:"playbackUrl,omitempty"`
	AvatarUrl   string    `json:"avatarUrl,omitempty"`
	Live        bool      `json:"live"`
}

// TwitchClient resolves channel and stream details from the Twitch Helix API using
// an app access token obtained once at startup
type TwitchClient struct {
	clientId     string
	clientSecret string
	appToken     string
}

func NewTwitchClient(clientId string, clientSecret string) (*TwitchClient, error) {
	c, err := helix.NewClient(&helix.Options{
		ClientID:     clientId,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}

	res, err := c.RequestAppAccessToken(nil)
	if err == nil && res.StatusCode != http.StatusOK {
		err = fmt.Errorf("got status %d: %s", res.StatusCode, res.ErrorMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app access token from Twitch API: %w", err)
	}

	return &TwitchClient{
		clientId:     clientId,
		clientSecret: clientSecret,
		appToken:     res.Data.AccessToken,
	}, nil
}

// api builds a context-bound Helix client for a single request
func (t *TwitchClient) api(ctx context.Context) (*helix.Client, error) {
	c, err := helix.NewClientWithContext(ctx, &helix.Options{
		ClientID:     t.clientId,
		ClientSecret: t.clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}
	c.SetAppAccessToken(t.appToken)
	return c, nil
}

// GetStream looks up a channel by login name, returning its current broadcast
// details if live or an offline descriptor if not. ErrNotFound is returned only when
// the channel itself is unknown
func (t *TwitchClient) GetStream(ctx context.Context, channel string) (*Stream, error) {
	client, err := t.api(ctx)
	if err != nil {
		return nil, err
	}

	users, err := client.GetUsers(&helix.UsersParams{
		Logins: []string{strings.ToLower(channel)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user details: %w", err)
	}
	if users.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got response %d from get users request: %s", users.StatusCode, users.ErrorMessage)
	}
	if len(users.Data.Users) != 1 {
		return nil, ErrNotFound
	}
	user := users.Data.Users[0]

	streams, err := client.GetStreams(&helix.StreamsParams{
		UserLogins: []string{user.Login},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stream details: %w", err)
	}
	if streams.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got response %d from get streams request: %s", streams.StatusCode, streams.ErrorMessage)
	}

	result := &Stream{
		Channel:   user.Login,
		UserId:    user.ID,
		AvatarUrl: user.ProfileImageURL,
	}
	if len(streams.Data.Streams) == 1 {
		stream := streams.Data.Streams[0]
		result.Title = stream.Title
		result.Game = stream.GameName
		result.ViewerCount = stream.ViewerCount
		result.StartedAt = stream.StartedAt
		result.PlaybackUrl = fmt.Sprintf("https://www.twitch.tv/%s", user.Login)
		result.Live = true
	}
	return result, nil
}

// GetLive returns the subset of the given login names that are currently live
func (t *TwitchClient) GetLive(ctx context.Context, channels []string) ([]string, error) {
	logins := make([]string, 0, len(channels))
	for _, channel := range channels {
		if channel == "" {
			continue
		}
		logins = append(logins, strings.ToLower(channel))
	}
	if len(logins) == 0 {
		return nil, nil
	}

	client, err := t.api(ctx)
	if err != nil {
		return nil, err
	}
	streams, err := client.GetStreams(&helix.StreamsParams{
		UserLogins: logins,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stream details: %w", err)
	}
	if streams.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got response %d from get streams request: %s", streams.StatusCode, streams.ErrorMessage)
	}

	live := make([]string, 0, len(streams.Data.Streams))
	for _, stream := range streams.Data.Streams {
		live = append(live, stream.UserLogin)
	}
	return live, nil
}

package netease

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	searchTypeSong       = 1
	defaultSearchLimit   = 30
	defaultPlaylistLimit = 10
)

// SearchSongs searches single tracks by keywords
func (c *Client) SearchSongs(ctx context.Context, keywords string, limit, offset int) (*SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("type", strconv.Itoa(searchTypeSong))

	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return nil, err
	}
	return &SearchResult{Songs: resp.Result.Songs, Total: resp.Result.SongCount}, nil
}

// SongURL resolves a streamable URL. Songs without playback rights come back with an empty URL, reported as ErrEmpty.
func (c *Client) SongURL(ctx context.Context, id int64, level Level) (*SongURLDTO, error) {
	if level == "" {
		level = LevelStandard
	}
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	params.Set("level", string(level))

	var resp songURLResponse
	if err := c.get(ctx, "song/url/v1", params, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Data {
		if resp.Data[i].URL != "" {
			return &resp.Data[i], nil
		}
	}
	return nil, fmt.Errorf("song %d has no url: %w", id, ErrEmpty)
}

// Lyric fetches the LRC lyric of a song
func (c *Client) Lyric(ctx context.Context, id int64) (*LyricDTO, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))

	var resp lyricResponse
	if err := c.get(ctx, "lyric", params, &resp); err != nil {
		return nil, err
	}
	out := &LyricDTO{}
	if resp.Lrc != nil {
		out.Lyric = resp.Lrc.Lyric
	}
	if resp.Tlyric != nil {
		out.Translated = resp.Tlyric.Lyric
	}
	if out.Lyric == "" {
		return nil, fmt.Errorf("song %d has no lyric: %w", id, ErrEmpty)
	}
	return out, nil
}

// RecommendPlaylists returns the personalized playlist recommendations
func (c *Client) RecommendPlaylists(ctx context.Context, limit int) ([]PlaylistDTO, error) {
	if limit <= 0 {
		limit = defaultPlaylistLimit
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp personalizedResponse
	if err := c.get(ctx, "personalized", params, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// PlaylistDetail returns a playlist with its tracks
func (c *Client) PlaylistDetail(ctx context.Context, id int64) (*PlaylistDetailDTO, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))

	var resp playlistDetailResponse
	if err := c.get(ctx, "playlist/detail", params, &resp); err != nil {
		return nil, err
	}
	if resp.Playlist == nil {
		return nil, fmt.Errorf("playlist %d: %w", id, ErrEmpty)
	}
	return resp.Playlist, nil
}

// HotSearches returns the current trending search terms
func (c *Client) HotSearches(ctx context.Context) ([]HotSearchDTO, error) {
	var resp hotSearchResponse
	if err := c.get(ctx, "search/hot/detail", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DailyRecommend returns the daily song recommendations. Requires a login cookie.
func (c *Client) DailyRecommend(ctx context.Context) ([]SongDTO, error) {
	var resp dailyRecommendResponse
	if err := c.get(ctx, "recommend/songs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.DailySongs, nil
}

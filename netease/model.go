package netease

import (
	"net/http"
	"strings"
)

// Level is the audio quality requested from song/url/v1
type Level string

const (
	LevelStandard Level = "standard"
	LevelHigher   Level = "higher"
	LevelExhigh   Level = "exhigh"
	LevelLossless Level = "lossless"
	LevelHiRes    Level = "hires"
)

// Client talks to a NeteaseCloudMusicApi deployment
type Client struct {
	BaseURL    string
	Cookie     string
	UserAgent  string
	HttpClient *http.Client
}

type baseResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (r baseResponse) status() (int, string) {
	if r.Message != "" {
		return r.Code, r.Message
	}
	return r.Code, r.Msg
}

type SongDTO struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Artists []ArtistDTO `json:"ar"`
	Album   AlbumDTO    `json:"al"`
	Dt      int64       `json:"dt"` // ms
}

// ArtistNames joins all artist names with ", "
func (s SongDTO) ArtistNames() string {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

type ArtistDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type AlbumDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

type searchResponse struct {
	baseResponse
	Result struct {
		Songs     []SongDTO `json:"songs"`
		SongCount int       `json:"songCount"`
	} `json:"result"`
}

// SearchResult is one page of song search results
type SearchResult struct {
	Songs []SongDTO
	Total int
}

type SongURLDTO struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Br   int    `json:"br"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type songURLResponse struct {
	baseResponse
	Data []SongURLDTO `json:"data"`
}

type lyricData struct {
	Lyric string `json:"lyric"`
}

type lyricResponse struct {
	baseResponse
	Lrc    *lyricData `json:"lrc"`
	Tlyric *lyricData `json:"tlyric"`
}

// LyricDTO holds the LRC text and its translation, either may be empty
type LyricDTO struct {
	Lyric      string
	Translated string
}

type PlaylistDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PicURL     string `json:"picUrl"`
	PlayCount  int64  `json:"playCount"`
	TrackCount int    `json:"trackCount"`
}

type personalizedResponse struct {
	baseResponse
	Result []PlaylistDTO `json:"result"`
}

type PlaylistDetailDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CoverImgURL string    `json:"coverImgUrl"`
	PlayCount   int64     `json:"playCount"`
	TrackCount  int       `json:"trackCount"`
	Tracks      []SongDTO `json:"tracks"`
}

type playlistDetailResponse struct {
	baseResponse
	Playlist *PlaylistDetailDTO `json:"playlist"`
}

type HotSearchDTO struct {
	SearchWord string `json:"searchWord"`
	Score      int64  `json:"score"`
	Content    string `json:"content"`
	IconURL    string `json:"iconUrl"`
}

type hotSearchResponse struct {
	baseResponse
	Data []HotSearchDTO `json:"data"`
}

type dailyRecommendResponse struct {
	baseResponse
	Data struct {
		DailySongs []SongDTO `json:"dailySongs"`
	} `json:"data"`
}

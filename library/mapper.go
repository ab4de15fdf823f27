package library

import (
	"github.com/yhkl-dev/freemusic/domain"
	"github.com/yhkl-dev/freemusic/netease"
	"github.com/yhkl-dev/freemusic/store"
)

func convertToDomainSongs(dtos []netease.SongDTO) []domain.Song {
	songs := make([]domain.Song, len(dtos))
	for i, dto := range dtos {
		songs[i] = convertToDomainSong(dto)
	}
	return songs
}

func convertToDomainSong(dto netease.SongDTO) domain.Song {
	return domain.Song{
		ID:       dto.ID,
		Name:     dto.Name,
		Artist:   dto.ArtistNames(),
		Album:    dto.Album.Name,
		CoverURL: dto.Album.PicURL,
		Duration: dto.Dt,
		Source:   domain.SourceNetease,
	}
}

func convertToDomainPlaylist(dto netease.PlaylistDTO) domain.Playlist {
	return domain.Playlist{
		ID:         dto.ID,
		Name:       dto.Name,
		CoverURL:   dto.PicURL,
		PlayCount:  dto.PlayCount,
		TrackCount: dto.TrackCount,
	}
}

func convertPlaylistDetail(dto *netease.PlaylistDetailDTO) *domain.Playlist {
	songs := convertToDomainSongs(dto.Tracks)
	trackCount := dto.TrackCount
	if trackCount == 0 {
		trackCount = len(songs)
	}
	return &domain.Playlist{
		ID:          dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
		CoverURL:    dto.CoverImgURL,
		PlayCount:   dto.PlayCount,
		TrackCount:  trackCount,
		Songs:       songs,
	}
}

func convertHotSearch(dto netease.HotSearchDTO) domain.HotSearch {
	return domain.HotSearch{Word: dto.SearchWord, Content: dto.Content, Score: dto.Score}
}

func songToRow(s domain.Song) store.SongRow {
	source := s.Source
	if source == "" {
		source = domain.SourceNetease
	}
	return store.SongRow{
		ID:         s.ID,
		Name:       s.Name,
		Artist:     s.Artist,
		Album:      s.Album,
		CoverURL:   s.CoverURL,
		DurationMs: s.Duration,
		Source:     source,
		URL:        s.URL,
	}
}

func songsToRows(songs []domain.Song) []store.SongRow {
	rows := make([]store.SongRow, len(songs))
	for i, s := range songs {
		rows[i] = songToRow(s)
	}
	return rows
}

func songFromRow(r store.SongRow) domain.Song {
	return domain.Song{
		ID:       r.ID,
		Name:     r.Name,
		Artist:   r.Artist,
		Album:    r.Album,
		CoverURL: r.CoverURL,
		Duration: r.DurationMs,
		Source:   r.Source,
		URL:      r.URL,
	}
}

func favoriteFromSong(s *domain.Song) store.FavoriteRow {
	return store.FavoriteRow{
		SongID:     s.ID,
		SongName:   s.Name,
		Artist:     s.Artist,
		Album:      s.Album,
		CoverURL:   s.CoverURL,
		DurationMs: s.Duration,
	}
}

func songFromFavorite(f store.FavoriteRow) domain.Song {
	return domain.Song{
		ID:       f.SongID,
		Name:     f.SongName,
		Artist:   f.Artist,
		Album:    f.Album,
		CoverURL: f.CoverURL,
		Duration: f.DurationMs,
		Source:   domain.SourceNetease,
	}
}

func historyFromSong(s *domain.Song) store.HistoryRow {
	return store.HistoryRow{
		SongID:   s.ID,
		SongName: s.Name,
		Artist:   s.Artist,
		CoverURL: s.CoverURL,
	}
}

// History rows do not keep album or duration
func songFromHistory(h store.HistoryRow) domain.Song {
	return domain.Song{
		ID:       h.SongID,
		Name:     h.SongName,
		Artist:   h.Artist,
		CoverURL: h.CoverURL,
		Source:   domain.SourceNetease,
	}
}

func playlistSongFromSong(playlistID int64, s *domain.Song) store.PlaylistSongRow {
	return store.PlaylistSongRow{
		PlaylistID: playlistID,
		SongID:     s.ID,
		SongName:   s.Name,
		Artist:     s.Artist,
		Album:      s.Album,
		CoverURL:   s.CoverURL,
		DurationMs: s.Duration,
	}
}

func songFromPlaylistSong(r store.PlaylistSongRow) domain.Song {
	return domain.Song{
		ID:       r.SongID,
		Name:     r.SongName,
		Artist:   r.Artist,
		Album:    r.Album,
		CoverURL: r.CoverURL,
		Duration: r.DurationMs,
		Source:   domain.SourceNetease,
	}
}

func playlistFromRow(r store.PlaylistRow) domain.Playlist {
	return domain.Playlist{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CoverURL:    r.CoverURL,
	}
}

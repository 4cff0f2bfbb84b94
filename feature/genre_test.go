package feature

import (
	"testing"

	"github.com/rushteam/banditkit/core"
)

func TestNormalizeMovieGenre(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Drama", "drama"},
		{"ADVENTURE", "action"},
		{"Horror", "thriller"},
		{"Sci-Fi", "action"},
		{"Animation", "comedy"},
		// 多流派取第一个
		{"Comedy|Romance", "comedy"},
		{"  War  ", "drama"},
		{"Documentary", "other"},
		{"", "other"},
	}
	for _, tt := range tests {
		if got := NormalizeMovieGenre(tt.raw); got != tt.want {
			t.Errorf("NormalizeMovieGenre(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeSongGenre(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Pop", "pop"},
		{"Hip Hop", "hiphop"},
		{"hip-hop", "hiphop"},
		{"R&B", "rnb"},
		{"Soul", "rnb"},
		{"Indie", "rock"},
		{"EDM", "pop"},
		{"Folk", "country"},
		{"Gregorian Chant", "other"},
		{"", "other"},
	}
	for _, tt := range tests {
		if got := NormalizeSongGenre(tt.raw); got != tt.want {
			t.Errorf("NormalizeSongGenre(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestArmFor(t *testing.T) {
	movie := core.NewCandidate(core.ContentTypeMovie, "m1")
	movie.Meta["genre"] = "Thriller"
	if got := ArmFor(movie); got != "movie:thriller" {
		t.Errorf("ArmFor(movie) = %q, want %q", got, "movie:thriller")
	}

	song := core.NewCandidate(core.ContentTypeSong, "s1")
	song.Meta["genre"] = "rap"
	if got := ArmFor(song); got != "song:hiphop" {
		t.Errorf("ArmFor(song) = %q, want %q", got, "song:hiphop")
	}

	// 流派缺失落入 other 桶
	bare := core.NewCandidate(core.ContentTypeSong, "s2")
	if got := ArmFor(bare); got != "song:other" {
		t.Errorf("ArmFor(no genre) = %q, want %q", got, "song:other")
	}
}

package feature

import (
	"strings"

	"github.com/rushteam/banditkit/core"
)

// 臂粒度：内容类型 + 粗粒度流派桶，共 12 个臂。
//
// 单个内容 ID 太多且反馈太稀疏，不适合按 ID 建臂；只按类型建臂又太粗、
// 冷启动后探索信息全部混在一起。流派桶是两者之间的折中：
// 电影/歌曲各 6 桶，流派桶同时隐含内容类型（两边流派不重叠）。
var (
	MovieArms = []string{"movie:drama", "movie:comedy", "movie:action", "movie:romance", "movie:thriller", "movie:other"}
	SongArms  = []string{"song:pop", "song:rock", "song:hiphop", "song:rnb", "song:country", "song:other"}
)

// movieGenreMap 把原始电影流派归一化到 6 个桶
var movieGenreMap = map[string]string{
	"drama":           "drama",
	"comedy":          "comedy",
	"action":          "action",
	"adventure":       "action",
	"romance":         "romance",
	"thriller":        "thriller",
	"horror":          "thriller",
	"crime":           "thriller",
	"sci-fi":          "action",
	"science fiction": "action",
	"animation":       "comedy",
	"family":          "comedy",
	"fantasy":         "action",
	"mystery":         "thriller",
	"war":             "drama",
	"western":         "action",
	"musical":         "comedy",
	"history":         "drama",
}

// songGenreMap 把原始歌曲流派归一化到 6 个桶
var songGenreMap = map[string]string{
	"pop":         "pop",
	"rock":        "rock",
	"alternative": "rock",
	"indie":       "rock",
	"hip hop":     "hiphop",
	"hip-hop":     "hiphop",
	"rap":         "hiphop",
	"r&b":         "rnb",
	"rnb":         "rnb",
	"soul":        "rnb",
	"blues":       "rnb",
	"country":     "country",
	"folk":        "country",
	"electronic":  "pop",
	"dance":       "pop",
	"edm":         "pop",
	"metal":       "rock",
	"punk":        "rock",
	"latin":       "pop",
}

// NormalizeMovieGenre 把原始电影流派归一化到 6 个桶之一。
// 多流派以 '|' 分隔时取第一个；未知/缺失 → other。
func NormalizeMovieGenre(raw string) string {
	first := strings.ToLower(strings.TrimSpace(strings.SplitN(raw, "|", 2)[0]))
	if g, ok := movieGenreMap[first]; ok {
		return g
	}
	return "other"
}

// NormalizeSongGenre 把原始歌曲流派归一化到 6 个桶之一。
func NormalizeSongGenre(raw string) string {
	g, ok := songGenreMap[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "other"
	}
	return g
}

// ArmFor 返回候选所属的臂标识（"movie:drama" / "song:pop" ...）。
// 臂在首次遇到时由策略惰性创建，这里不做预注册。
func ArmFor(cand *core.Candidate) string {
	switch cand.Type {
	case core.ContentTypeMovie:
		return "movie:" + NormalizeMovieGenre(cand.Genre())
	case core.ContentTypeSong:
		return "song:" + NormalizeSongGenre(cand.Genre())
	default:
		return string(cand.Type) + ":other"
	}
}

package metadata

import "strings"

// Key 元数据键：规范键或自定义键
type Key string

// 规范键
const (
	Title                 Key = "title"
	Artist                Key = "artist"
	Album                 Key = "album"
	Language              Key = "language"
	Offset                Key = "offset"
	Songwriter            Key = "songwriter"
	NcmMusicID            Key = "ncmMusicId"
	QqMusicID             Key = "qqMusicId"
	SpotifyID             Key = "spotifyId"
	AppleMusicID          Key = "appleMusicId"
	Isrc                  Key = "isrc"
	TtmlAuthorGithub      Key = "ttmlAuthorGithub"
	TtmlAuthorGithubLogin Key = "ttmlAuthorGithubLogin"
)

var aliases = map[string]Key{
	"ti":                    Title,
	"title":                 Title,
	"musicname":             Title,
	"ar":                    Artist,
	"artist":                Artist,
	"artists":               Artist,
	"al":                    Album,
	"album":                 Album,
	"lang":                  Language,
	"language":              Language,
	"offset":                Offset,
	"songwriter":            Songwriter,
	"songwriters":           Songwriter,
	"ncmmusicid":            NcmMusicID,
	"qqmusicid":             QqMusicID,
	"spotifyid":             SpotifyID,
	"applemusicid":          AppleMusicID,
	"isrc":                  Isrc,
	"ttmlauthorgithub":      TtmlAuthorGithub,
	"by":                    TtmlAuthorGithubLogin,
	"ttmlauthorgithublogin": TtmlAuthorGithubLogin,
}

var ranks = map[Key]int{
	Title:                 0,
	Artist:                1,
	Album:                 2,
	Songwriter:            3,
	Language:              4,
	Offset:                5,
	AppleMusicID:          10,
	NcmMusicID:            11,
	QqMusicID:             12,
	SpotifyID:             13,
	Isrc:                  14,
	TtmlAuthorGithub:      20,
	TtmlAuthorGithubLogin: 21,
}

// ParseKey 把原始键映射为规范键，未知键原样作为自定义键
func ParseKey(raw string) Key {
	raw = strings.TrimSpace(raw)
	if k, ok := aliases[strings.ToLower(raw)]; ok {
		return k
	}
	return Key(raw)
}

// IsCanonical 是否为规范键
func (k Key) IsCanonical() bool {
	_, ok := ranks[k]
	return ok
}

// Rank 显示顺序，自定义键排在最后
func (k Key) Rank() int {
	if r, ok := ranks[k]; ok {
		return r
	}
	return 1000
}

// AMLLKeys TTML amll:meta 输出的规范键顺序
func AMLLKeys() []Key {
	return []Key{
		Title, Artist, Album, Isrc, AppleMusicID, NcmMusicID, SpotifyID, QqMusicID,
		TtmlAuthorGithub, TtmlAuthorGithubLogin,
	}
}

// AMLLName 返回键在 amll:meta 中的名字
func (k Key) AMLLName() string {
	switch k {
	case Title:
		return "musicName"
	case Artist:
		return "artists"
	}
	return string(k)
}

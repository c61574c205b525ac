package model

import "errors"

// 搜索模式，同时是缓存键的分区前缀：不同模式下相同的查询文本互不冲突
const (
	ModeAlbums  = "albums"
	ModeArtists = "artists"
	ModeUsers   = "users"
)

// ES索引名
const (
	IndexAlbums  = "melodiary_albums"
	IndexArtists = "melodiary_artists"
	IndexUsers   = "melodiary_users"
)

// 分页配置
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// 热门关键词
const (
	HotKeywordPrefix = "search:hot:"
	DefaultHotLimit  = 10
	MaxHotLimit      = 50
)

// UserEventsTopic 用户事件主题，消费后刷新用户索引
const UserEventsTopic = "user-events"

// 错误分类
var (
	ErrValidation       = errors.New("参数验证失败")
	ErrStoreUnavailable = errors.New("搜索服务不可用")
)

// IsValidMode 检查搜索模式是否有效
func IsValidMode(mode string) bool {
	switch mode {
	case ModeAlbums, ModeArtists, ModeUsers:
		return true
	}
	return false
}

// AlbumDoc 专辑文档
type AlbumDoc struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Artist string   `json:"artist"`
	Year   int32    `json:"year"`
	Genres []string `json:"genres"`
}

// ArtistDoc 艺人文档
type ArtistDoc struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// UserDoc 用户文档
type UserDoc struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

// SearchResult 搜索结果
//
// 按mode只填充对应的切片；FromCache标记结果来自进程内缓存。
type SearchResult struct {
	Mode      string       `json:"mode"`
	Query     string       `json:"query"`
	Total     int64        `json:"total"`
	Albums    []*AlbumDoc  `json:"albums,omitempty"`
	Artists   []*ArtistDoc `json:"artists,omitempty"`
	Users     []*UserDoc   `json:"users,omitempty"`
	FromCache bool         `json:"from_cache"`
}

// HotKeyword 热门关键词
type HotKeyword struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// HTTP请求结构体

type SearchRequest struct {
	Mode     string `json:"mode"`
	Query    string `json:"query"`
	Page     int32  `json:"page"`
	PageSize int32  `json:"page_size"`
}

type HotKeywordsRequest struct {
	Mode  string `json:"mode"`
	Limit int32  `json:"limit"`
}

type IndexAlbumRequest struct {
	Album *AlbumDoc `json:"album"`
}

type IndexArtistRequest struct {
	Artist *ArtistDoc `json:"artist"`
}

type IndexUserRequest struct {
	User *UserDoc `json:"user"`
}

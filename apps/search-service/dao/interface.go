package dao

import (
	"context"

	"melodiary/apps/search-service/model"
)

// SearchDAO 搜索数据访问接口
type SearchDAO interface {
	// 搜索
	SearchAlbums(ctx context.Context, query string, from, size int32) ([]*model.AlbumDoc, int64, error)
	SearchArtists(ctx context.Context, query string, from, size int32) ([]*model.ArtistDoc, int64, error)
	SearchUsers(ctx context.Context, query string, from, size int32) ([]*model.UserDoc, int64, error)

	// 索引
	IndexAlbum(ctx context.Context, album *model.AlbumDoc) error
	IndexArtist(ctx context.Context, artist *model.ArtistDoc) error
	IndexUser(ctx context.Context, user *model.UserDoc) error

	// 索引管理
	EnsureIndexes(ctx context.Context) error
}

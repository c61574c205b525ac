package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"melodiary/apps/search-service/model"
	"melodiary/pkg/logger"
)

// elasticsearchDAO ElasticSearch数据访问对象
type elasticsearchDAO struct {
	client *elasticsearch.Client
	logger logger.Logger
}

// NewElasticsearchDAO 创建ElasticSearch DAO实例
func NewElasticsearchDAO(client *elasticsearch.Client, log logger.Logger) SearchDAO {
	return &elasticsearchDAO{
		client: client,
		logger: log,
	}
}

// esResponse 搜索响应
type esResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// EnsureIndexes 创建缺失的索引
func (d *elasticsearchDAO) EnsureIndexes(ctx context.Context) error {
	indexes := map[string]map[string]interface{}{
		model.IndexAlbums: {
			"properties": map[string]interface{}{
				"id":     map[string]interface{}{"type": "long"},
				"title":  map[string]interface{}{"type": "text"},
				"artist": map[string]interface{}{"type": "text"},
				"year":   map[string]interface{}{"type": "integer"},
				"genres": map[string]interface{}{"type": "keyword"},
			},
		},
		model.IndexArtists: {
			"properties": map[string]interface{}{
				"id":     map[string]interface{}{"type": "long"},
				"name":   map[string]interface{}{"type": "text"},
				"genres": map[string]interface{}{"type": "keyword"},
			},
		},
		model.IndexUsers: {
			"properties": map[string]interface{}{
				"id":           map[string]interface{}{"type": "long"},
				"username":     map[string]interface{}{"type": "text"},
				"display_name": map[string]interface{}{"type": "text"},
				"bio":          map[string]interface{}{"type": "text"},
			},
		},
	}

	for indexName, mapping := range indexes {
		exists, err := d.indexExists(ctx, indexName)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := d.createIndex(ctx, indexName, mapping); err != nil {
			return err
		}
	}
	return nil
}

// indexExists 检查索引是否存在
func (d *elasticsearchDAO) indexExists(ctx context.Context, indexName string) (bool, error) {
	req := esapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check index existence: %v", model.ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

// createIndex 创建索引
func (d *elasticsearchDAO) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	configJSON, err := json.Marshal(map[string]interface{}{
		"mappings": mapping,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal index config: %v", err)
	}

	req := esapi.IndicesCreateRequest{
		Index: indexName,
		Body:  bytes.NewReader(configJSON),
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to create index",
			logger.F("index", indexName),
			logger.F("error", err.Error()))
		return fmt.Errorf("%w: failed to create index: %v", model.ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: failed to create index: %s", model.ErrStoreUnavailable, res.String())
	}

	d.logger.Info(ctx, "Index created successfully",
		logger.F("index", indexName))
	return nil
}

// search 执行multi_match搜索
func (d *elasticsearchDAO) search(ctx context.Context, indexName, query string, fields []string, from, size int32) (*esResponse, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    fields,
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(bodyJSON),
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to execute search",
			logger.F("index", indexName),
			logger.F("error", err.Error()))
		return nil, fmt.Errorf("%w: failed to execute search: %v", model.ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var response esResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %v", model.ErrStoreUnavailable, err)
	}

	return &response, nil
}

// SearchAlbums 专辑搜索
func (d *elasticsearchDAO) SearchAlbums(ctx context.Context, query string, from, size int32) ([]*model.AlbumDoc, int64, error) {
	response, err := d.search(ctx, model.IndexAlbums, query, []string{"title^2", "artist"}, from, size)
	if err != nil {
		return nil, 0, err
	}

	results := make([]*model.AlbumDoc, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		var doc model.AlbumDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			d.logger.Warn(ctx, "Failed to decode album document",
				logger.F("doc_id", hit.ID),
				logger.F("error", err.Error()))
			continue
		}
		results = append(results, &doc)
	}
	return results, response.Hits.Total.Value, nil
}

// SearchArtists 艺人搜索
func (d *elasticsearchDAO) SearchArtists(ctx context.Context, query string, from, size int32) ([]*model.ArtistDoc, int64, error) {
	response, err := d.search(ctx, model.IndexArtists, query, []string{"name"}, from, size)
	if err != nil {
		return nil, 0, err
	}

	results := make([]*model.ArtistDoc, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		var doc model.ArtistDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			d.logger.Warn(ctx, "Failed to decode artist document",
				logger.F("doc_id", hit.ID),
				logger.F("error", err.Error()))
			continue
		}
		results = append(results, &doc)
	}
	return results, response.Hits.Total.Value, nil
}

// SearchUsers 用户搜索
func (d *elasticsearchDAO) SearchUsers(ctx context.Context, query string, from, size int32) ([]*model.UserDoc, int64, error) {
	response, err := d.search(ctx, model.IndexUsers, query, []string{"username^2", "display_name"}, from, size)
	if err != nil {
		return nil, 0, err
	}

	results := make([]*model.UserDoc, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		var doc model.UserDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			d.logger.Warn(ctx, "Failed to decode user document",
				logger.F("doc_id", hit.ID),
				logger.F("error", err.Error()))
			continue
		}
		results = append(results, &doc)
	}
	return results, response.Hits.Total.Value, nil
}

// indexDocument 索引单个文档
func (d *elasticsearchDAO) indexDocument(ctx context.Context, indexName, docID string, document interface{}) error {
	docJSON, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %v", err)
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: docID,
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to index document",
			logger.F("index", indexName),
			logger.F("doc_id", docID),
			logger.F("error", err.Error()))
		return fmt.Errorf("%w: failed to index document: %v", model.ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: failed to index document: %s", model.ErrStoreUnavailable, res.String())
	}

	d.logger.Debug(ctx, "Document indexed successfully",
		logger.F("index", indexName),
		logger.F("doc_id", docID))
	return nil
}

// IndexAlbum 索引专辑文档
func (d *elasticsearchDAO) IndexAlbum(ctx context.Context, album *model.AlbumDoc) error {
	return d.indexDocument(ctx, model.IndexAlbums, strconv.FormatInt(album.ID, 10), album)
}

// IndexArtist 索引艺人文档
func (d *elasticsearchDAO) IndexArtist(ctx context.Context, artist *model.ArtistDoc) error {
	return d.indexDocument(ctx, model.IndexArtists, strconv.FormatInt(artist.ID, 10), artist)
}

// IndexUser 索引用户文档
func (d *elasticsearchDAO) IndexUser(ctx context.Context, user *model.UserDoc) error {
	return d.indexDocument(ctx, model.IndexUsers, strconv.FormatInt(user.ID, 10), user)
}

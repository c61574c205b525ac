package database

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"melodiary/pkg/logger"
)

// Elasticsearch Elasticsearch客户端封装
type Elasticsearch struct {
	client *elasticsearch.Client
	logger logger.Logger
}

// NewElasticsearch 创建Elasticsearch连接
func NewElasticsearch(addresses []string, username, password string, log logger.Logger) (*Elasticsearch, error) {
	esConfig := elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %v", err)
	}

	// 测试连接
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch connection error: %s", res.String())
	}

	log.Info(context.Background(), "Elasticsearch connected successfully")

	return &Elasticsearch{
		client: client,
		logger: log,
	}, nil
}

// GetClient 获取原生客户端
func (es *Elasticsearch) GetClient() *elasticsearch.Client {
	return es.client
}

// Ping 测试连接
func (es *Elasticsearch) Ping(ctx context.Context) error {
	res, err := es.client.Info()
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elasticsearch ping failed: %s", res.String())
	}

	return nil
}

// Close 关闭连接（ES客户端无需显式关闭，保留接口一致性）
func (es *Elasticsearch) Close() error {
	return nil
}

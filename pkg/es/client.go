// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"ai-lawyer-go/internal/config"
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/pkg/log"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端并确保索引存在。
func InitES(esCfg config.ElasticsearchConfig, dims int) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName, dims)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string, dims int) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 摘要向量维度与 embedding 模型保持一致，使用 cosine 相似度
	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"document_id": { "type": "keyword" },
				"case_id": { "type": "keyword" },
				"file_name": { "type": "text" },
				"summary": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"created_by": { "type": "keyword" }
			}
		}
	}`, dims)

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)

	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// SearchFilter 约束一次向量检索的范围与结果数量。
type SearchFilter struct {
	OwnerID   string
	CaseID    string
	Threshold float64
	Limit     int
	ExcludeID string
}

// Index 接口定义了文档向量索引的读写操作。
type Index interface {
	IndexDocument(ctx context.Context, doc model.IndexedDocument) error
	DeleteDocument(ctx context.Context, documentID string) error
	Search(ctx context.Context, vector []float32, filter SearchFilter) ([]model.SimilarDocument, error)
}

type index struct {
	client    *elasticsearch.Client
	indexName string
}

// NewIndex 创建一个基于 Elasticsearch 的 Index 实例。
func NewIndex(client *elasticsearch.Client, indexName string) Index {
	return &index{client: client, indexName: indexName}
}

// IndexDocument 将单个文档向量索引到 Elasticsearch。
func (i *index) IndexDocument(ctx context.Context, doc model.IndexedDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.indexName,
		DocumentID: doc.DocumentID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}

	return nil
}

// DeleteDocument 从索引中删除指定文档，文档不存在时视为成功。
func (i *index) DeleteDocument(ctx context.Context, documentID string) error {
	req := esapi.DeleteRequest{
		Index:      i.indexName,
		DocumentID: documentID,
		Refresh:    "true",
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		log.Errorf("从 Elasticsearch 删除文档出错: %s", res.String())
		return errors.New("failed to delete document from index")
	}

	return nil
}

// Search 执行向量 k-NN 检索，按所有者（可选按案件）过滤并排除指定文档。
func (i *index) Search(ctx context.Context, vector []float32, filter SearchFilter) ([]model.SimilarDocument, error) {
	terms := []map[string]interface{}{
		{"term": map[string]interface{}{"created_by": filter.OwnerID}},
	}
	if filter.CaseID != "" {
		terms = append(terms, map[string]interface{}{"term": map[string]interface{}{"case_id": filter.CaseID}})
	}
	boolQuery := map[string]interface{}{
		"filter": terms,
	}
	if filter.ExcludeID != "" {
		boolQuery["must_not"] = []map[string]interface{}{
			{"term": map[string]interface{}{"document_id": filter.ExcludeID}},
		}
	}

	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              filter.Limit,
			"num_candidates": filter.Limit * 10,
			"similarity":     filter.Threshold,
			"filter": map[string]interface{}{
				"bool": boolQuery,
			},
		},
		"size": filter.Limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.indexName),
		i.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		log.Errorf("Elasticsearch 检索返回错误: %s", string(body))
		return nil, errors.New("search request failed")
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64               `json:"_score"`
				Source model.IndexedDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]model.SimilarDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		results = append(results, model.SimilarDocument{
			DocumentID: hit.Source.DocumentID,
			CaseID:     hit.Source.CaseID,
			FileName:   hit.Source.FileName,
			Summary:    hit.Source.Summary,
			Score:      hit.Score,
		})
	}
	return results, nil
}

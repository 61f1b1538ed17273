// Package pipeline 定义了文档索引的核心流程。
package pipeline

import (
	"ai-lawyer-go/internal/model"
	"ai-lawyer-go/internal/repository"
	"ai-lawyer-go/pkg/es"
	"ai-lawyer-go/pkg/log"
	"ai-lawyer-go/pkg/tasks"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Processor 封装了索引任务处理的所有依赖和逻辑。
type Processor struct {
	docRepo repository.DocumentRepository
	index   es.Index
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(docRepo repository.DocumentRepository, index es.Index) *Processor {
	return &Processor{docRepo: docRepo, index: index}
}

// Process 是索引任务处理的主函数。
// 文档记录是事实来源，任务消息只携带定位信息。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentIndexTask) error {
	log.Infof("[Processor] 开始处理索引任务, DocumentID: %s, FileName: %s", task.DocumentID, task.FileName)

	// 1. 加载文档记录
	doc, err := p.docRepo.FindByID(task.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 文档已被删除，任务视为完成
			log.Warnf("[Processor] 文档不存在, 跳过索引任务, DocumentID: %s", task.DocumentID)
			return nil
		}
		return fmt.Errorf("加载文档记录失败: %w", err)
	}

	// 2. 没有向量的文档（旧版上传）不进入索引
	if len(doc.Embedding) == 0 {
		log.Warnf("[Processor] 文档没有向量, 跳过索引, DocumentID: %s", doc.ID)
		return nil
	}

	// 3. 写入搜索索引
	indexed := model.IndexedDocument{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		Summary:    doc.Summary,
		Vector:     doc.Embedding,
		CreatedBy:  doc.CreatedBy,
	}
	if doc.CaseID != nil {
		indexed.CaseID = *doc.CaseID
	}
	if err := p.index.IndexDocument(ctx, indexed); err != nil {
		log.Errorf("[Processor] 索引文档失败, DocumentID: %s, Error: %v", doc.ID, err)
		return fmt.Errorf("索引文档失败: %w", err)
	}

	log.Infof("[Processor] 索引任务处理成功, DocumentID: %s", doc.ID)
	return nil
}

// Package extract 提供了从上传文档中提取纯文本的功能。
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Text 根据文件扩展名选择解析器并提取纯文本。
func Text(data []byte, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return docxText(data)
	default:
		return "", fmt.Errorf("不支持的文件类型: %s", ext)
	}
}

// normalizeText 折叠多余空白并去掉首尾空白，但保留换页符（页数统计依赖它）。
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch r {
		case '\f':
			b.WriteRune(r)
			lastSpace = false
		case ' ', '\t', '\r', '\n':
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

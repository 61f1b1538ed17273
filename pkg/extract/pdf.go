package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfText 逐页提取 PDF 的纯文本，页与页之间以换页符分隔。
// 个别解析失败的页会被跳过，而不是让整份文档提取失败。
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("打开 PDF 失败: %w", err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, normalizeText(text))
	}

	joined := strings.Join(pages, "\f")
	if strings.TrimSpace(strings.ReplaceAll(joined, "\f", " ")) == "" {
		return "", fmt.Errorf("未能从 PDF 中提取到任何文本")
	}
	return joined, nil
}

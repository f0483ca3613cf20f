package export

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanHTML 解析 HTML，移除脚本和样式，并把懒加载图片的 data-src 提升为 src
func CleanHTML(raw string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	// 微信文章图片的真实地址在 data-src 中，src 为空或是占位图
	doc.Find("img[data-src]").Each(func(_ int, img *goquery.Selection) {
		dataSrc := strings.TrimSpace(img.AttrOr("data-src", ""))
		if dataSrc == "" {
			return
		}
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			img.SetAttr("src", dataSrc)
		}
	})

	return doc, nil
}

// CleanFragment 清理一段 HTML 片段并返回片段本身（不含 html/body 包装）
func CleanFragment(raw string) (string, error) {
	doc, err := CleanHTML(raw)
	if err != nil {
		return "", err
	}
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Package markdown 将整页文章转换为 Markdown 文件
package markdown

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"wxdl/internal/browser"
	"wxdl/internal/config"
	"wxdl/internal/export"
)

func init() {
	export.MustRegister("markdown", New)
	export.MustRegister("md", New)
}

// Exporter Markdown 导出器
type Exporter struct {
	cfg config.Export
}

// New 创建 Markdown 导出器
func New(cfg config.Export) export.Exporter {
	return &Exporter{cfg: cfg}
}

func (e *Exporter) Extension() string {
	return ".md"
}

// Export 滚动加载全文后转换整页 HTML，并截掉 CutMarker 之后的页脚内容
func (e *Exporter) Export(page browser.Page, job export.Job) (string, error) {
	if err := export.Prepare(page, e.cfg); err != nil {
		return "", err
	}
	filename := export.ResolveFilename(page, job, e.cfg.TitleSelector, e.Extension())

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	text, err := Convert(html, hostOf(page.URL(), job.TargetURL))
	if err != nil {
		return "", err
	}
	text = Truncate(text, e.cfg.CutMarker)
	if strings.TrimSpace(text) == "" {
		return "", export.ErrEmptyContent
	}

	return export.WriteFile(job.OutputDir, filename, []byte(text))
}

// Convert 将 HTML 转换为 Markdown，表格转换为 GFM 表格，相对链接按 domain 补全
func Convert(html, domain string) (string, error) {
	doc, err := export.CleanHTML(html)
	if err != nil {
		return "", err
	}
	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	converter := md.NewConverter(domain, true, nil)
	converter.Use(plugin.GitHubFlavored())

	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

// Truncate 返回 marker 首次出现之前的内容；marker 为空或不存在时原样返回
func Truncate(text, marker string) string {
	if marker == "" {
		return text
	}
	if i := strings.Index(text, marker); i >= 0 {
		return strings.TrimRight(text[:i], " \t\r\n")
	}
	return text
}

func hostOf(pageURL, fallback string) string {
	for _, raw := range []string{pageURL, fallback} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return ""
}

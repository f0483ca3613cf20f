// Package html 将文章正文导出为独立的 HTML 文件
package html

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"wxdl/internal/browser"
	"wxdl/internal/config"
	"wxdl/internal/export"
)

func init() {
	export.MustRegister("html", New)
}

var pageTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { max-width: 800px; margin: 0 auto; padding: 20px; font-family: -apple-system, BlinkMacSystemFont, "PingFang SC", "Microsoft YaHei", sans-serif; line-height: 1.6; }
img { max-width: 100%; height: auto; }
</style>
</head>
<body>
{{.Content}}
</body>
</html>
`))

type pageData struct {
	Title   string
	Content template.HTML
}

// Exporter HTML 导出器，只保留 ContentSelector 容器内的正文
type Exporter struct {
	cfg config.Export
}

// New 创建 HTML 导出器
func New(cfg config.Export) export.Exporter {
	return &Exporter{cfg: cfg}
}

func (e *Exporter) Extension() string {
	return ".html"
}

func (e *Exporter) Export(page browser.Page, job export.Job) (string, error) {
	if err := export.Prepare(page, e.cfg); err != nil {
		return "", err
	}
	filename := export.ResolveFilename(page, job, e.cfg.TitleSelector, e.Extension())

	content, ok, err := page.Has(e.cfg.ContentSelector)
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", e.cfg.ContentSelector, err)
	}
	if !ok {
		u := page.URL()
		if u == "" {
			u = job.TargetURL
		}
		return "", &export.ContentNotFoundError{Selector: e.cfg.ContentSelector, URL: u}
	}

	inner, err := content.InnerHTML()
	if err != nil {
		return "", fmt.Errorf("failed to read content HTML: %w", err)
	}
	body, err := export.CleanFragment(inner)
	if err != nil {
		return "", err
	}

	data, err := Render(strings.TrimSuffix(filename, e.Extension()), body)
	if err != nil {
		return "", err
	}
	return export.WriteFile(job.OutputDir, filename, data)
}

// Render 用固定页面模板包装正文片段
func Render(title, body string) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{Title: title, Content: template.HTML(body)}); err != nil {
		return nil, fmt.Errorf("failed to render HTML document: %w", err)
	}
	return buf.Bytes(), nil
}

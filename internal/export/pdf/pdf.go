// Package pdf 将渲染完成的页面打印为 PDF
package pdf

import (
	"fmt"

	"wxdl/internal/browser"
	"wxdl/internal/config"
	"wxdl/internal/export"
)

func init() {
	export.MustRegister("pdf", New)
}

// Exporter PDF 导出器，依赖 headless 浏览器的打印能力
type Exporter struct {
	cfg config.Export
}

// New 创建 PDF 导出器
func New(cfg config.Export) export.Exporter {
	return &Exporter{cfg: cfg}
}

func (e *Exporter) Extension() string {
	return ".pdf"
}

func (e *Exporter) Export(page browser.Page, job export.Job) (string, error) {
	if err := export.Prepare(page, e.cfg); err != nil {
		return "", err
	}
	filename := export.ResolveFilename(page, job, e.cfg.TitleSelector, e.Extension())

	data, err := page.PDF()
	if err != nil {
		return "", fmt.Errorf("failed to print PDF: %w", err)
	}
	return export.WriteFile(job.OutputDir, filename, data)
}

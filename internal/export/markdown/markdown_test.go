package markdown

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxdl/internal/config"
	"wxdl/internal/export"
	"wxdl/internal/mock"
)

const articleHTML = `<html><head><title>t</title><script>var tracking = 1;</script></head><body>
<h1 class="rich_media_title">Go 并发</h1>
<div id="page-content">
<p>正文内容</p>
<table><thead><tr><th>名称</th><th>值</th></tr></thead><tbody><tr><td>a</td><td>1</td></tr></tbody></table>
<img data-src="https://mmbiz.qpic.cn/x.png" src="">
</div>
<p>预览时标签不可点</p>
<p>页脚链接</p>
</body></html>`

func articlePage(html string) *mock.Page {
	return &mock.Page{
		HTMLFn: func() (string, error) { return html, nil },
		URLFn:  func() string { return "https://mp.weixin.qq.com/s/abc" },
		HasFn: mock.Selectors(map[string]*mock.Element{
			".rich_media_title": {TextValue: " Go 并发 "},
		}),
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	e := New(config.Default().Export)

	p, err := e.Export(articlePage(articleHTML), export.Job{OutputDir: dir, TargetURL: "https://mp.weixin.qq.com/s/abc"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Go 并发.md"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "正文内容")
	assert.Contains(t, text, "| 名称")
	assert.Contains(t, text, "https://mmbiz.qpic.cn/x.png")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "预览时标签不可点")
	assert.NotContains(t, text, "页脚链接")
}

func TestExport_EmptyAfterTruncation(t *testing.T) {
	dir := t.TempDir()
	e := New(config.Default().Export)

	_, err := e.Export(articlePage(`<p>预览时标签不可点</p><p>页脚</p>`), export.Job{OutputDir: dir})
	assert.ErrorIs(t, err, export.ErrEmptyContent)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTruncate(t *testing.T) {
	const marker = "预览时标签不可点"

	assert.Equal(t, "正文", Truncate("正文\n\n预览时标签不可点\n页脚", marker))
	assert.Equal(t, "", Truncate("预览时标签不可点 页脚", marker))
	assert.Equal(t, "没有标记", Truncate("没有标记", marker))
	assert.Equal(t, "a 预览时标签不可点", Truncate("a 预览时标签不可点", ""))
}

func TestRegistered(t *testing.T) {
	r := export.NewRegistry(config.Default().Export)
	for _, name := range []string{"markdown", "MD", " Markdown "} {
		e, err := r.Create(name)
		require.NoError(t, err, name)
		assert.IsType(t, &Exporter{}, e)
		assert.Equal(t, ".md", e.Extension())
	}
}

package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"

	"wxdl/internal/browser"
	"wxdl/internal/config"
	"wxdl/internal/mock"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "普通标题", want: "普通标题"},
		{in: `a\b/c:d*e?f"g<h>i|j`, want: "a_b_c_d_e_f_g_h_i_j"},
		{in: "2024/05/01 周报: 进展?", want: "2024_05_01 周报_ 进展_"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		got := SanitizeFilename(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, SanitizeFilename(got), "sanitize must be idempotent")
		assert.NotContains(t, got, "/")
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Go 语言", want: "Go 语言"},
		{in: "a/b", want: "a_b"},
		{in: "..", want: "fallback"},
		{in: ".", want: "fallback"},
		{in: " ... ", want: "fallback"},
		{in: "", want: "fallback"},
		{in: "..a", want: "..a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeName(tt.in, "fallback"), tt.in)
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://mp.weixin.qq.com/s/AbC123xyz", want: "AbC123xyz"},
		{url: "https://example.com/posts/page.final.html", want: "page"},
		{url: "https://mp.weixin.qq.com/s?__biz=MzA&mid=1", want: "s"},
		{url: "https://mp.weixin.qq.com/", want: UntitledArticle},
		{url: "", want: UntitledArticle},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromURL(tt.url), tt.url)
	}
}

func titledPage(title, url string) *mock.Page {
	table := map[string]*mock.Element{}
	if title != "" {
		table[".rich_media_title"] = &mock.Element{TextValue: "\n  " + title + "  "}
	}
	return &mock.Page{
		HasFn: mock.Selectors(table),
		URLFn: func() string { return url },
	}
}

func TestResolveFilename(t *testing.T) {
	const sel = ".rich_media_title"

	page := titledPage("标题: 第一篇", "https://mp.weixin.qq.com/s/abc")
	assert.Equal(t, "标题_ 第一篇.md", ResolveFilename(page, Job{}, sel, ".md"))
	assert.Equal(t, "自定义_名字.pdf", ResolveFilename(page, Job{Filename: "自定义/名字.pdf"}, sel, ".md"))

	page = titledPage("", "https://mp.weixin.qq.com/s/abc")
	assert.Equal(t, "abc.html", ResolveFilename(page, Job{}, sel, ".html"))

	page = titledPage("", "")
	assert.Equal(t, "target.md", ResolveFilename(page, Job{TargetURL: "https://mp.weixin.qq.com/s/target"}, sel, ".md"))
}

func TestCollectionFilename(t *testing.T) {
	const sel = ".rich_media_title"

	page := titledPage("第二篇", "https://mp.weixin.qq.com/s/xyz")
	assert.Equal(t, "第二篇.html", CollectionFilename(page, "Go 合集", "", sel, ".html"))

	page = titledPage("", "https://mp.weixin.qq.com/s/xyz")
	assert.Equal(t, "Go 合集 - xyz.md", CollectionFilename(page, "Go 合集", "", sel, ".md"))
	assert.Equal(t, "a_b - xyz.pdf", CollectionFilename(page, "a/b", "", sel, ".pdf"))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")

	p, err := WriteFile(dir, "a:b.md", []byte("# hi"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))
	assert.Equal(t, filepath.Join(dir, "a_b.md"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))

	p, err = WriteFile(dir, "..", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, UntitledArticle), p)

	_, err = WriteFile(dir, "empty.md", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.NoFileExists(t, filepath.Join(dir, "empty.md"))
}

func TestPrepare(t *testing.T) {
	var gotArgs []any
	page := &mock.Page{EvalFn: func(js string, args ...any) (gson.JSON, error) {
		gotArgs = args
		return gson.New(1000), nil
	}}
	require.NoError(t, Prepare(page, config.Default().Export))
	assert.Equal(t, []any{150, int64(50), 600}, gotArgs)

	// a 1s budget at 50ms per tick allows 20 ticks, so the page script widens its stride
	cfg := config.Default().Export
	cfg.ScrollBudget = time.Second
	require.NoError(t, Prepare(page, cfg))
	assert.Equal(t, []any{150, int64(50), 20}, gotArgs)
	assert.Contains(t, scrollJS, "Math.ceil(height / maxTicks)")

	cfg.ScrollBudget = time.Millisecond
	require.NoError(t, Prepare(page, cfg))
	assert.Equal(t, 1, gotArgs[2])

	boom := errors.New("target closed")
	page.EvalFn = func(string, ...any) (gson.JSON, error) { return gson.New(nil), boom }
	assert.ErrorIs(t, Prepare(page, config.Export{}), boom)
}

func TestCleanFragment(t *testing.T) {
	out, err := CleanFragment(`<p>正文</p><script>alert(1)</script><img data-src="https://mmbiz.qpic.cn/a.png" src="">` +
		`<img data-src="https://mmbiz.qpic.cn/b.png" src="https://mmbiz.qpic.cn/keep.png">`)
	require.NoError(t, err)

	assert.Contains(t, out, "<p>正文</p>")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, ` src="https://mmbiz.qpic.cn/a.png"`)
	assert.Contains(t, out, ` src="https://mmbiz.qpic.cn/keep.png"`)
	assert.NotContains(t, out, "<body>")
}

type fakeExporter struct {
	ext string
}

func (f fakeExporter) Export(browser.Page, Job) (string, error) { return "", nil }
func (f fakeExporter) Extension() string                        { return f.ext }

func fakeFactory(ext string) Factory {
	return func(config.Export) Exporter { return fakeExporter{ext: ext} }
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(config.Default().Export)

	require.NoError(t, r.Register("Fake", fakeFactory(".fake")))
	require.NoError(t, r.Register("alias", fakeFactory(".fake")))

	e, err := r.Create("  FAKE ")
	require.NoError(t, err)
	assert.Equal(t, ".fake", e.Extension())

	_, err = r.Create("docx")
	var unsupported *UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "docx", unsupported.Format)

	assert.Subset(t, r.Formats(), []string{"alias", "fake"})
	assert.IsNonDecreasing(t, r.Formats())
}

func TestRegistry_RejectsBrokenFactories(t *testing.T) {
	r := NewRegistry(config.Export{})

	assert.Error(t, r.Register("", fakeFactory(".x")))
	assert.Error(t, r.Register("nil", nil))
	assert.Error(t, r.Register("nothing", func(config.Export) Exporter { return nil }))
	assert.Error(t, r.Register("noext", fakeFactory("")))
	assert.Error(t, r.Register("nodot", fakeFactory("md")))

	for _, f := range r.Formats() {
		assert.NotContains(t, []string{"nil", "nothing", "noext", "nodot"}, f)
	}
}

func TestRegistry_InstancesAreIsolated(t *testing.T) {
	a := NewRegistry(config.Export{})
	b := NewRegistry(config.Export{})

	require.NoError(t, a.Register("only-a", fakeFactory(".a")))
	_, err := b.Create("only-a")
	assert.Error(t, err)
}

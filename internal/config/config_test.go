package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.True(t, s.Browser.Headless)
	assert.Equal(t, 60*time.Second, s.Navigation.Timeout)
	assert.Equal(t, uint64(0), s.Navigation.Retries, "each page is navigated once unless retries are configured")
	assert.Equal(t, 30*time.Second, s.Export.ScrollBudget)
	assert.Equal(t, 5, s.Crawl.ExpandAttempts)
	assert.Equal(t, 5*time.Second, s.Crawl.ExpandWait)
	assert.Equal(t, time.Second, s.Crawl.SettleDelay)
	assert.Equal(t, 1000, s.Crawl.MaxScrolls)
	assert.Equal(t, 10, s.Crawl.MaxIdleScrolls)
	assert.Equal(t, "#page-content", s.Export.ContentSelector)
	assert.Equal(t, "markdown", s.Output.Format)
	assert.Equal(t, DefaultOutputFolder, filepath.Base(s.Output.Dir))
	require.NoError(t, s.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_OverridesKeepUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wxdl.yaml")
	content := `
browser:
  headless: false
  proxy: http://127.0.0.1:7890
navigation:
  timeout: 30s
crawl:
  max_idle_scrolls: 3
  selectors:
    name: "#album_name"
output:
  dir: /tmp/articles
  format: pdf
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.False(t, s.Browser.Headless)
	assert.Equal(t, "http://127.0.0.1:7890", s.Browser.ProxyURL)
	assert.Equal(t, 30*time.Second, s.Navigation.Timeout)
	assert.Equal(t, 3, s.Crawl.MaxIdleScrolls)
	assert.Equal(t, "#album_name", s.Crawl.Selectors.Name)
	assert.Equal(t, "/tmp/articles", s.Output.Dir)
	assert.Equal(t, "pdf", s.Output.Format)

	// untouched fields keep their defaults
	assert.Equal(t, 1000, s.Crawl.MaxScrolls)
	assert.Equal(t, "data-link", s.Crawl.Selectors.ItemLinkAttr)
	assert.Equal(t, "预览时标签不可点", s.Export.CutMarker)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "browser: [headless"},
		{name: "zero timeout", content: "navigation:\n  timeout: 0s\n"},
		{name: "zero max scrolls", content: "crawl:\n  max_scrolls: 0\n"},
		{name: "scroll budget beyond eval timeout", content: "export:\n  scroll_budget: 90s\n"},
		{name: "zero scroll budget", content: "export:\n  scroll_budget: 0s\n"},
		{name: "empty output dir", content: "output:\n  dir: \"  \"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, filepath.Base(t.Name())+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultOutputFolder 默认保存目录名（位于桌面下）
const DefaultOutputFolder = "微信公众号文章"

// Settings 运行配置，对应 YAML 配置文件结构
type Settings struct {
	Browser    Browser    `yaml:"browser"`
	Navigation Navigation `yaml:"navigation"`
	Crawl      Crawl      `yaml:"crawl"`
	Export     Export     `yaml:"export"`
	Output     Output     `yaml:"output"`
	Log        Log        `yaml:"log"`
}

// Browser 浏览器启动参数
type Browser struct {
	Headless    bool          `yaml:"headless"`
	ProxyURL    string        `yaml:"proxy"`
	Bin         string        `yaml:"bin"`
	NoSandbox   bool          `yaml:"no_sandbox"`
	Leakless    bool          `yaml:"leakless"`
	Stealth     bool          `yaml:"stealth"`
	UserAgent   string        `yaml:"user_agent"`
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

// Navigation 页面导航参数
type Navigation struct {
	Timeout       time.Duration `yaml:"timeout"`
	Retries       uint64        `yaml:"retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Selectors 合集页面的 DOM 选择器
type Selectors struct {
	Name          string `yaml:"name"`
	NamePrefix    string `yaml:"name_prefix"`
	ExpandControl string `yaml:"expand_control"`
	ExpandText    string `yaml:"expand_text"`
	ExpandedItems string `yaml:"expanded_items"`
	ScrollList    string `yaml:"scroll_list"`
	ScrollItems   string `yaml:"scroll_items"`
	ItemTitle     string `yaml:"item_title"`
	ItemLinkAttr  string `yaml:"item_link_attr"`
	NoMore        string `yaml:"no_more"`
}

// Crawl 合集分页参数
type Crawl struct {
	Selectors      Selectors     `yaml:"selectors"`
	ExpandAttempts int           `yaml:"expand_attempts"`
	ExpandWait     time.Duration `yaml:"expand_wait"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	ListWait       time.Duration `yaml:"list_wait"`
	MaxScrolls     int           `yaml:"max_scrolls"`
	MaxIdleScrolls int           `yaml:"max_idle_scrolls"`
}

// Export 导出参数
type Export struct {
	ScrollStep      int           `yaml:"scroll_step"`
	ScrollInterval  time.Duration `yaml:"scroll_interval"`
	ScrollBudget    time.Duration `yaml:"scroll_budget"` // 预加载滚动的最长耗时，需小于 browser.eval_timeout
	ContentSelector string        `yaml:"content_selector"`
	TitleSelector   string        `yaml:"title_selector"`
	CutMarker       string        `yaml:"cut_marker"`
}

// Output 输出参数
type Output struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Log 日志参数
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default 返回内置默认配置
func Default() *Settings {
	return &Settings{
		Browser: Browser{
			Headless:    true,
			Leakless:    true,
			EvalTimeout: 60 * time.Second,
		},
		Navigation: Navigation{
			Timeout:       60 * time.Second,
			Retries:       0,
			RetryInterval: 500 * time.Millisecond,
		},
		Crawl: Crawl{
			Selectors: Selectors{
				Name:          "#js_tag_name",
				NamePrefix:    "合集：#",
				ExpandControl: "div.unfold-more__word",
				ExpandText:    "展开更多",
				ExpandedItems: ".album__list.album_novel_list li",
				ScrollList:    ".album__list.js_album_list",
				ScrollItems:   ".album__list.js_album_list li.album__list-item.js_album_item",
				ItemTitle:     ".album__item-title-wrp",
				ItemLinkAttr:  "data-link",
				NoMore:        ".over-line.js_no_more_album",
			},
			ExpandAttempts: 5,
			ExpandWait:     5 * time.Second,
			SettleDelay:    time.Second,
			ListWait:       5 * time.Second,
			MaxScrolls:     1000,
			MaxIdleScrolls: 10,
		},
		Export: Export{
			ScrollStep:      150,
			ScrollInterval:  50 * time.Millisecond,
			ScrollBudget:    30 * time.Second,
			ContentSelector: "#page-content",
			TitleSelector:   ".rich_media_title",
			CutMarker:       "预览时标签不可点",
		},
		Output: Output{
			Dir:    defaultOutputDir(),
			Format: "markdown",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load 读取 YAML 配置文件并覆盖默认值；path 为空时直接返回默认配置
func Load(path string) (*Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate 检查配置取值范围
func (s *Settings) Validate() error {
	switch {
	case s.Navigation.Timeout <= 0:
		return fmt.Errorf("navigation.timeout must be positive")
	case s.Browser.EvalTimeout <= 0:
		return fmt.Errorf("browser.eval_timeout must be positive")
	case s.Crawl.ExpandAttempts <= 0:
		return fmt.Errorf("crawl.expand_attempts must be positive")
	case s.Crawl.MaxScrolls <= 0:
		return fmt.Errorf("crawl.max_scrolls must be positive")
	case s.Crawl.MaxIdleScrolls <= 0:
		return fmt.Errorf("crawl.max_idle_scrolls must be positive")
	case s.Crawl.ExpandWait <= 0 || s.Crawl.ListWait <= 0:
		return fmt.Errorf("crawl wait timeouts must be positive")
	case s.Crawl.SettleDelay < 0:
		return fmt.Errorf("crawl.settle_delay must not be negative")
	case s.Export.ScrollStep <= 0 || s.Export.ScrollInterval <= 0:
		return fmt.Errorf("export scroll step and interval must be positive")
	case s.Export.ScrollBudget <= 0 || s.Export.ScrollBudget >= s.Browser.EvalTimeout:
		return fmt.Errorf("export.scroll_budget must be positive and shorter than browser.eval_timeout")
	case strings.TrimSpace(s.Output.Dir) == "":
		return fmt.Errorf("output.dir must not be empty")
	}
	return nil
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultOutputFolder
	}
	return filepath.Join(home, "Desktop", DefaultOutputFolder)
}

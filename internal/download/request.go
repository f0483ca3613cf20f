package download

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrCrawlFailed 合集解析失败，整个合集任务终止且不会导出任何文章
var ErrCrawlFailed = errors.New("collection crawl failed")

// Mode 运行模式
type Mode string

const (
	ModeSingle     Mode = "single"
	ModeCollection Mode = "collection"
	ModeBatch      Mode = "batch"
)

// ParseMode 解析运行模式（不区分大小写）
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSingle, ModeCollection, ModeBatch:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode: %s (expected single, collection or batch)", s)
	}
}

// Request 一次运行的输入。
// single/collection 使用 URL，batch 使用 Batch（每行一个 URL）。
type Request struct {
	Mode      Mode
	URL       string
	Batch     string
	Format    string
	OutputDir string
	Filename  string // 仅 single 模式，可选
}

func (r Request) validate() error {
	switch r.Mode {
	case ModeSingle, ModeCollection:
		if strings.TrimSpace(r.URL) == "" {
			return fmt.Errorf("%s mode requires a URL", r.Mode)
		}
	case ModeBatch:
	default:
		return fmt.Errorf("invalid mode: %q", r.Mode)
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return errors.New("output directory must not be empty")
	}
	return nil
}

// SplitBatch 将批量文本拆分为去除首尾空白后的非空行
func SplitBatch(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

// Progress 进度单位，0..10000 表示 0%..100%
type Progress int

// MaxProgress 全部完成时的进度值
const MaxProgress Progress = 10000

// ProgressFunc 进度回调，每处理完一项（无论成功与否）调用一次
type ProgressFunc func(Progress)

// ProgressAt 第 i 项（从 0 开始）处理完成后的进度
func ProgressAt(i, total int) Progress {
	if total <= 0 {
		return MaxProgress
	}
	return Progress(math.Round(float64(i+1) / float64(total) * float64(MaxProgress)))
}

// Percent 以百分比表示进度
func (p Progress) Percent() float64 {
	return float64(p) / 100
}

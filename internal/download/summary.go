package download

import (
	"fmt"
	"strings"
)

// Failure 导出失败的条目，保留足够信息以便手动重试
type Failure struct {
	Index int
	URL   string
	Err   error
}

// Summary 一次运行的结果汇总
type Summary struct {
	RunID      string
	Mode       Mode
	Collection string
	Total      int
	Files      []string
	Failures   []Failure
	Canceled   bool
}

func (s *Summary) Succeeded() int {
	return len(s.Files)
}

func (s *Summary) Failed() int {
	return len(s.Failures)
}

// Err 存在失败条目或运行被取消时返回非 nil
func (s *Summary) Err() error {
	if s.Failed() == 0 && !s.Canceled {
		return nil
	}
	urls := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		urls = append(urls, fmt.Sprintf("#%d %s", f.Index+1, f.URL))
	}
	if s.Canceled {
		return fmt.Errorf("run canceled: %d of %d items exported, failed: [%s]", s.Succeeded(), s.Total, strings.Join(urls, ", "))
	}
	return fmt.Errorf("%d of %d items failed: %s", s.Failed(), s.Total, strings.Join(urls, ", "))
}

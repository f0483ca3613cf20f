package collection

import "encoding/json"

const (
	// DefaultName is used when the collection page carries no name element.
	DefaultName = "未命名合集"
	// UntitledArticle is the placeholder title for list items without a title.
	UntitledArticle = "无标题"
)

// Article is one collection member. Link is its identity.
type Article struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Result is a crawled collection in first-discovery order.
type Result struct {
	Name     string
	Articles []Article
}

// Total is always the number of articles.
func (r *Result) Total() int {
	return len(r.Articles)
}

func (r *Result) MarshalJSON() ([]byte, error) {
	articles := r.Articles
	if articles == nil {
		articles = []Article{}
	}
	return json.Marshal(struct {
		Name     string    `json:"name"`
		Articles []Article `json:"articles"`
		Total    int       `json:"total"`
	}{r.Name, articles, r.Total()})
}

// articleSet keeps insertion order and rejects repeated links.
type articleSet struct {
	seen     map[string]struct{}
	articles []Article
}

func newArticleSet() *articleSet {
	return &articleSet{seen: make(map[string]struct{})}
}

// add reports whether a was new. The first occurrence of a link wins.
func (s *articleSet) add(a Article) bool {
	if a.Link == "" {
		return false
	}
	if _, ok := s.seen[a.Link]; ok {
		return false
	}
	s.seen[a.Link] = struct{}{}
	s.articles = append(s.articles, a)
	return true
}

func (s *articleSet) len() int {
	return len(s.articles)
}

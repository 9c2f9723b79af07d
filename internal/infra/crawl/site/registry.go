package site

import (
	"net/http"
	"sort"

	"hybridnews/internal/usecase/crawl"
)

// Registry is a static map-backed crawl.Registry.
type Registry struct {
	adapters map[string]crawl.SiteAdapter
}

// NewRegistry builds a Registry over the given website->adapter map.
func NewRegistry(adapters map[string]crawl.SiteAdapter) *Registry {
	return &Registry{adapters: adapters}
}

// Adapter implements crawl.Registry.
func (r *Registry) Adapter(website string) (crawl.SiteAdapter, bool) {
	a, ok := r.adapters[website]
	return a, ok
}

// Websites implements crawl.Registry, in stable order.
func (r *Registry) Websites() []string {
	out := make([]string, 0, len(r.adapters))
	for w := range r.adapters {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry wires the supported Vietnamese news sites: vnexpress
// and cafef expose server-rendered search/category pages, vneconomy's
// crawl lane runs off its public topic RSS feeds.
func DefaultRegistry(client *http.Client) *Registry {
	return NewRegistry(map[string]crawl.SiteAdapter{
		"vnexpress": NewHTMLAdapter(HTMLConfig{
			Website:           "vnexpress",
			SearchURLTemplate: "https://timkiem.vnexpress.net/?q={keyword}&page={page}&fromdate={start}&todate={end}",
			ItemSelector:      "article.item-news",
			TitleSelector:     "h3.title-news a",
			LinkAttr:          "",
			DateSelector:      "span.time-public",
		}, client),
		"cafef": NewHTMLAdapter(HTMLConfig{
			Website:             "cafef",
			SearchURLTemplate:   "https://cafef.vn/tim-kiem/trang-{page}/{keyword}.chn",
			CategoryURLTemplate: "{url}/trang-{page}.chn",
			ItemSelector:        "div.tlitem",
			TitleSelector:       "h3 a",
			DateSelector:        "span.time",
		}, client),
		"vneconomy": NewRSSAdapter(RSSConfig{
			Website: "vneconomy",
			FeedURL: "https://vneconomy.vn/rss/home.rss",
		}, client),
	})
}

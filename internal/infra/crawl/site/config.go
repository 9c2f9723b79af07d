package site

import (
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"hybridnews/internal/usecase/crawl"
)

// RegistryFile is the YAML shape of a site-adapter registry. Each entry
// describes either an HTML-driven site (selectors + URL templates) or an
// RSS-driven one (feed URL); the type field selects which.
type RegistryFile struct {
	Sites []SiteEntry `yaml:"sites"`
}

// SiteEntry is one website's adapter configuration.
type SiteEntry struct {
	Website string `yaml:"website"`
	Type    string `yaml:"type"` // "html" or "rss"

	// HTML adapter fields.
	SearchURLTemplate   string `yaml:"search_url_template"`
	CategoryURLTemplate string `yaml:"category_url_template"`
	ItemSelector        string `yaml:"item_selector"`
	LinkAttr            string `yaml:"link_attr"`
	TitleSelector       string `yaml:"title_selector"`
	DateSelector        string `yaml:"date_selector"`
	DateAttr            string `yaml:"date_attr"`

	// RSS adapter fields.
	FeedURL string `yaml:"feed_url"`
}

// LoadRegistry reads a YAML site-registry file and builds a Registry over
// it. A missing file is not an error: the baked-in DefaultRegistry is
// returned instead, the same fail-open posture the security config uses.
// A present-but-invalid file is an error, so a typo cannot silently strip
// every adapter.
func LoadRegistry(path string, client *http.Client) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRegistry(client), nil
		}
		return nil, fmt.Errorf("site registry: read %s: %w", path, err)
	}

	var file RegistryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("site registry: parse %s: %w", path, err)
	}
	if len(file.Sites) == 0 {
		return nil, fmt.Errorf("site registry: %s declares no sites", path)
	}

	adapters := make(map[string]crawl.SiteAdapter, len(file.Sites))
	for _, entry := range file.Sites {
		if entry.Website == "" {
			return nil, fmt.Errorf("site registry: entry with empty website in %s", path)
		}
		switch entry.Type {
		case "rss":
			if entry.FeedURL == "" {
				return nil, fmt.Errorf("site registry: rss site %q needs feed_url", entry.Website)
			}
			adapters[entry.Website] = NewRSSAdapter(RSSConfig{
				Website: entry.Website,
				FeedURL: entry.FeedURL,
			}, client)
		case "html", "":
			if entry.ItemSelector == "" {
				return nil, fmt.Errorf("site registry: html site %q needs item_selector", entry.Website)
			}
			adapters[entry.Website] = NewHTMLAdapter(HTMLConfig{
				Website:             entry.Website,
				SearchURLTemplate:   entry.SearchURLTemplate,
				CategoryURLTemplate: entry.CategoryURLTemplate,
				ItemSelector:        entry.ItemSelector,
				LinkAttr:            entry.LinkAttr,
				TitleSelector:       entry.TitleSelector,
				DateSelector:        entry.DateSelector,
				DateAttr:            entry.DateAttr,
			}, client)
		default:
			return nil, fmt.Errorf("site registry: site %q has unknown type %q", entry.Website, entry.Type)
		}
	}

	return NewRegistry(adapters), nil
}

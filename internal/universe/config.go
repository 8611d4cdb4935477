package universe

import "fmt"

// 유니버스 소스
const (
	SourceStatic    = "static"
	SourceWikipedia = "wikipedia"
)

// Config selects where symbols come from and how they are filtered
type Config struct {
	Source       string       `yaml:"source" json:"source" default:"static" validate:"oneof=static wikipedia"`
	Lists        []string     `yaml:"lists" json:"lists" default:"[\"most_active\",\"small_caps\",\"meme\",\"etfs\"]"`
	Size         int          `yaml:"size" json:"size" default:"100" validate:"gte=1,lte=1000"`
	WikipediaURL string       `yaml:"wikipedia_url" json:"wikipedia_url" default:"https://en.wikipedia.org/wiki/List_of_S%26P_500_companies" validate:"url"`
	Filters      FilterConfig `yaml:"filters" json:"filters"`
}

// FilterConfig are the tradability criteria applied on refresh
type FilterConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	MinPrice     float64 `yaml:"min_price" json:"min_price" default:"5" validate:"gte=0"`
	MaxPrice     float64 `yaml:"max_price" json:"max_price" default:"500" validate:"gtfield=MinPrice"`
	MinVolume    float64 `yaml:"min_volume" json:"min_volume" default:"1000000" validate:"gte=0"`
	MinMarketCap float64 `yaml:"min_market_cap" json:"min_market_cap" default:"1000000000" validate:"gte=0"`
}

// CheckLists rejects unknown curated list names
func (c Config) CheckLists() error {
	for _, name := range c.Lists {
		if _, ok := curated[name]; !ok {
			return fmt.Errorf("unknown list %q", name)
		}
	}
	return nil
}

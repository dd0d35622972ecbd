package duckduckgo

import (
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
)

// init registers the DuckDuckGo adapter with the source registry
func init() {
	source.Register(Name, Create)
}

package scrapingdog

import (
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
)

// init registers the Scrapingdog adapter with the source registry
func init() {
	source.Register(Name, Create)
}

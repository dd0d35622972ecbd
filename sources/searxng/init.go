package searxng

import (
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
)

// init registers the SearxNG adapter with the source registry
func init() {
	source.Register(Name, Create)
}

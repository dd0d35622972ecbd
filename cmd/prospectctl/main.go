// Command prospectctl runs discovery, keyword planning, scoring and
// extraction from the terminal, without the HTTP service around them.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/duckduckgo"
	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/ollama"
	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/scrapingdog"
	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/searxng"
)

func main() {
	if err := NewRoot().Execute(); err != nil {
		log.Error().Err(err).Msg("prospectctl failed")
		os.Exit(1)
	}
}

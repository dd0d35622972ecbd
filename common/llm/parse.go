// Package llm holds the lenient parsing of language-model output. Models
// rarely return clean JSON: they wrap it in code fences, leave trailing
// commas or add a sentence before the object.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/mo"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
)

var (
	codeFenceRegex         = regexp.MustCompile("(?s)```(?:json|javascript|js)?\\s*\\n?(.*?)\\n?```")
	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)^\s*//.*$`)
	multiLineCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// MaxInputSize bounds the text handed to Parse
const MaxInputSize = 1 << 20

// Parse decodes text into T, trying in order: the text as is, the content of
// a code fence, the text with comments, control characters and trailing
// commas removed, and finally the span between the first '{' and the last '}'.
func Parse[T any](text string) mo.Result[T] {
	if len(text) > MaxInputSize {
		return mo.Err[T](fmt.Errorf("%w: input exceeds %d bytes", common.ErrMalformedResponse, MaxInputSize))
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return mo.Err[T](fmt.Errorf("%w: empty input", common.ErrMalformedResponse))
	}

	var lastErr error
	for _, candidate := range candidates(trimmed) {
		var out T
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			lastErr = err
			continue
		}
		return mo.Ok(out)
	}

	return mo.Err[T](fmt.Errorf("%w: %v", common.ErrMalformedResponse, lastErr))
}

func candidates(text string) []string {
	out := []string{text}

	unfenced := text
	if m := codeFenceRegex.FindStringSubmatch(text); m != nil {
		unfenced = strings.TrimSpace(m[1])
		out = append(out, unfenced)
	}

	cleaned := cleanup(unfenced)
	if cleaned != unfenced {
		out = append(out, cleaned)
	}

	if obj := extractObject(cleaned); obj != "" && obj != cleaned {
		out = append(out, obj)
	}
	return out
}

func cleanup(text string) string {
	text = multiLineCommentRegex.ReplaceAllString(text, "")
	text = singleLineCommentRegex.ReplaceAllString(text, "")
	text = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return trailingCommaRegex.ReplaceAllString(text, "$1")
}

func extractObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

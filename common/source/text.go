package source

import (
	"context"
	"strings"
)

type textSinkKey struct{}

// TextSink receives text an adapter read while answering a query: result
// snippets and page bodies. It can be called from several goroutines.
type TextSink func(text string)

// WithTextSink returns a context whose adapters report the text they read
// to sink.
func WithTextSink(ctx context.Context, sink TextSink) context.Context {
	return context.WithValue(ctx, textSinkKey{}, sink)
}

// ReportText hands text to the sink carried by ctx, if any.
func ReportText(ctx context.Context, text string) {
	sink, ok := ctx.Value(textSinkKey{}).(TextSink)
	if !ok || sink == nil || strings.TrimSpace(text) == "" {
		return
	}
	sink(text)
}

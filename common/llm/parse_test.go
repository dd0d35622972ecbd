package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  sample
	}{
		{"plain", `{"name":"acme","count":2}`, sample{"acme", 2}},
		{"fenced", "```json\n{\"name\":\"acme\",\"count\":2}\n```", sample{"acme", 2}},
		{"fence without language", "```{\"name\":\"acme\",\"count\":2}```", sample{"acme", 2}},
		{"trailing comma", `{"name":"acme","count":2,}`, sample{"acme", 2}},
		{"comments", "{\n// the name\n\"name\":\"acme\", /* n */ \"count\":2}", sample{"acme", 2}},
		{"prose around object", `Sure! Here it is: {"name":"acme","count":2} Hope that helps.`, sample{"acme", 2}},
		{"control characters", "{\"name\":\"acme\",\x01\"count\":2}", sample{"acme", 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse[sample](tt.input)
			require.True(t, res.IsOk(), "unexpected error: %v", res.Error())
			assert.Equal(t, tt.want, res.MustGet())
		})
	}
}

func TestParseFailures(t *testing.T) {
	for _, input := range []string{"", "   ", "no json here", "{broken"} {
		res := Parse[sample](input)
		require.True(t, res.IsError(), input)
		assert.ErrorIs(t, res.Error(), common.ErrMalformedResponse)
	}
}

func TestParseProfile(t *testing.T) {
	t.Run("garbage falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultProfile(), ParseProfile("I cannot help with that"))
	})

	t.Run("partial profile is completed", func(t *testing.T) {
		p := ParseProfile("```json\n{\"estimated_role\":\"CEO\",\"confidence_score\":0.9,}\n```")
		assert.Equal(t, "CEO", p.EstimatedRole)
		assert.Equal(t, 0.9, p.ConfidenceScore)
		assert.Equal(t, "medium", p.DecisionLevel)
		assert.Equal(t, []string{"efficiency", "growth"}, p.PainPoints)
	})

	t.Run("out of range confidence", func(t *testing.T) {
		p := ParseProfile(`{"confidence_score": 7}`)
		assert.Equal(t, 0.5, p.ConfidenceScore)
	})
}

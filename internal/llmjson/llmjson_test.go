package llmjson_test

import (
	"testing"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/llmjson"

	"github.com/stretchr/testify/assert"
)

type estimate struct {
	Salary float64 `json:"salary"`
	Level  string  `json:"level"`
}

func TestParse_BareJSON(t *testing.T) {
	r := llmjson.Parse[estimate](`{"salary": 32000, "level": "mid"}`)

	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, estimate{Salary: 32000, Level: "mid"}, v)
}

func TestParse_FencedBlock(t *testing.T) {
	text := "Here is the estimate:\n```json\n{\"salary\": 28000, \"level\": \"entry\"}\n```\nLet me know!"

	v, ok := llmjson.Parse[estimate](text).Value()
	assert.True(t, ok)
	assert.Equal(t, 28000.0, v.Salary)
}

func TestParse_EmbeddedInProse(t *testing.T) {
	text := `Based on market data {"salary": 85000, "level": "senior", "note": "a {tricky} string"} is typical.`

	v, ok := llmjson.Parse[estimate](text).Value()
	assert.True(t, ok)
	assert.Equal(t, "senior", v.Level)
}

func TestParse_SkipsUnbalancedPrefix(t *testing.T) {
	text := `Ranges [roughly] vary. [{"salary": 1, "level": "entry"}]`

	v, ok := llmjson.Parse[[]estimate](text).Value()
	assert.True(t, ok)
	assert.Len(t, v, 1)
}

func TestParse_Array(t *testing.T) {
	v, ok := llmjson.Parse[[]estimate](`[{"salary": 1, "level": "entry"}, {"salary": 2, "level": "mid"}]`).Value()
	assert.True(t, ok)
	assert.Len(t, v, 2)
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		"",
		"I cannot estimate salaries.",
		`{"salary": "a lot", "level": "mid"}`,
		`{"salary": 1000`,
	}
	for _, text := range cases {
		r := llmjson.Parse[estimate](text)
		assert.False(t, r.IsOk(), "input %q", text)
		assert.Equal(t, text, r.Raw())
	}
}

func TestParse_TrailingGarbageIsNotBare(t *testing.T) {
	// The bare decode fails, but the embedded object is still found.
	v, ok := llmjson.Parse[estimate](`{"salary": 5, "level": "mid"} trailing words`).Value()
	assert.True(t, ok)
	assert.Equal(t, 5.0, v.Salary)
}

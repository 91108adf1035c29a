package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONResponse_FencedJSON(t *testing.T) {
	resp := "Sure, here you go:\n```json\n{\"synthesis\": \"x\", \"opportunities\": [\"a\"]}\n```\nthanks"
	out := ParseJSONResponse(resp, nil)
	require.Equal(t, "x", out["synthesis"])
}

func TestParseJSONResponse_TrailingCommaFixed(t *testing.T) {
	resp := "```json\n{\"a\": 1, \"b\": 2,}\n```"
	out := ParseJSONResponse(resp, nil)
	require.Equal(t, float64(1), out["a"])
}

func TestParseJSONResponse_SingleQuotedKeys(t *testing.T) {
	resp := "{'a': 1, 'b': \"text\"}"
	out := ParseJSONResponse(resp, nil)
	require.Equal(t, "text", out["b"])
}

func TestParseJSONResponse_FirstBraceLastBrace(t *testing.T) {
	resp := "Response: {\"x\": 1} -- end of message"
	out := ParseJSONResponse(resp, nil)
	require.Equal(t, float64(1), out["x"])
}

func TestParseJSONResponse_FallbackRawResponse(t *testing.T) {
	resp := "this is not json at all"
	out := ParseJSONResponse(resp, nil)
	require.Equal(t, resp, out["raw_response"])
}

package engine

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{
			name: "list of result objects",
			raw:  []any{map[string]any{"text": "a"}, map[string]any{"text": "b"}},
			want: "a b",
		},
		{
			name: "list with alternate keys",
			raw:  []any{map[string]any{"output": "hello"}, map[string]any{"sentence": "world"}},
			want: "hello world",
		},
		{
			name: "list of strings",
			raw:  []any{"one", " two "},
			want: "one two",
		},
		{
			name: "map with direct text",
			raw:  map[string]any{"text": "direct"},
			want: "direct",
		},
		{
			name: "map with sentence_info",
			raw:  map[string]any{"sentence_info": []any{map[string]any{"text": "x"}}},
			want: "x",
		},
		{
			name: "map with segments using content key",
			raw:  map[string]any{"segments": []any{map[string]any{"content": "seg"}}},
			want: "seg",
		},
		{
			name: "map with text and segments combined",
			raw: map[string]any{
				"text":     "head",
				"segments": []any{map[string]any{"text": "tail"}},
			},
			want: "head tail",
		},
		{
			name: "bare string",
			raw:  "  plain  ",
			want: "plain",
		},
		{
			name: "arbitrary value stringified",
			raw:  42,
			want: "42",
		},
		{
			name: "nil degrades to empty",
			raw:  nil,
			want: "",
		},
		{
			name: "malformed entries skipped",
			raw:  []any{map[string]any{"text": 7}, 3.5, map[string]any{"text": "ok"}},
			want: "ok",
		},
		{
			name: "empty list",
			raw:  []any{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%v) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"language and emotion tags", "<|zh|><|NEUTRAL|>hello", "hello"},
		{"interleaved tags", "<|zh|>你好 <|Speech|> 世界<|withitn|>", "你好 世界"},
		{"no tags", "already clean", "already clean"},
		{"whitespace collapsed", "a   b\t c", "a b c"},
		{"only tags", "<|zh|><|EMO_UNKNOWN|>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripMarkup(tt.in)
			if got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Stripping is idempotent.
			if again := StripMarkup(got); again != got {
				t.Errorf("StripMarkup not idempotent: %q -> %q", got, again)
			}
		})
	}
}

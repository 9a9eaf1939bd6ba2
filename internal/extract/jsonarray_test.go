package extract

import "testing"

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		want         string
		wantFallback bool
	}{
		{
			name:  "clean array",
			reply: `[{"Release Date":"2025-09-12","Season":"SPRING 2025"}]`,
			want:  `[{"Release Date":"2025-09-12","Season":"SPRING 2025"}]`,
		},
		{
			name:  "prose around array",
			reply: "Sure! Here are the records:\n[{\"Season\":\"FALL 2025\"}]\nLet me know if you need more.",
			want:  `[{"Season":"FALL 2025"}]`,
		},
		{
			name:  "markdown fence",
			reply: "```json\n[\n  {\"Season\": \"FALL 2025\"}\n]\n```",
			want:  "[\n  {\"Season\": \"FALL 2025\"}\n]",
		},
		{
			name:  "empty array",
			reply: "[]",
			want:  "[]",
		},
		{
			name:         "no json",
			reply:        "no json here",
			want:         "[]",
			wantFallback: true,
		},
		{
			name:         "reversed brackets",
			reply:        "] broken [",
			want:         "[]",
			wantFallback: true,
		},
		{
			name:         "only opening bracket",
			reply:        "[ {\"Season\": \"FALL 2025\"}",
			want:         "[]",
			wantFallback: true,
		},
		{
			name:         "empty reply",
			reply:        "",
			want:         "[]",
			wantFallback: true,
		},
		{
			name:  "brackets in prose are taken as-is",
			reply: "See [note] then [1,2]",
			want:  "[note] then [1,2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := ExtractArray(tt.reply)
			if got != tt.want {
				t.Errorf("ExtractArray() = %q, want %q", got, tt.want)
			}
			if fallback != tt.wantFallback {
				t.Errorf("fallback = %v, want %v", fallback, tt.wantFallback)
			}
		})
	}
}

func TestExtractArray_Idempotent(t *testing.T) {
	replies := []string{
		`[{"a":1}]`,
		"prefix [1, [2, 3]] suffix",
		"no json here",
		"] broken [",
	}

	for _, reply := range replies {
		once, _ := ExtractArray(reply)
		twice, fallback := ExtractArray(once)
		if once != twice {
			t.Errorf("ExtractArray not idempotent for %q: %q then %q", reply, once, twice)
		}
		if fallback {
			t.Errorf("expected no fallback on already-extracted text %q", once)
		}
	}
}

package llm

import "fmt"

const buysheetPrompt = `You are a data assistant. From the following buysheet data:

%s

Extract all records, not a subset. For each record:
- "Release Date": use the value from the field 'In DC Date'
- "Season": use the value from the field 'Cost Folio Season', or infer it from 'Comment' when it mentions a season and year (e.g., "SPRING 2025", "FALL 2025", "'25-SPRING")

Return only a valid **JSON array** like this:
[
  {"Release Date": "2025-09-12", "Season": "SPRING 2025"},
  ...
]

Do not include explanations or markdown. Only output the JSON array.
If no valid records exist, return: []
`

// BuildPrompt renders the buysheet extraction instructions around one chunk of raw lines.
// The chunk text is embedded verbatim.
func BuildPrompt(chunkText string) string {
	return fmt.Sprintf(buysheetPrompt, chunkText)
}

// EffectivePrompt returns override when it is non-blank, otherwise the generated prompt
func EffectivePrompt(override, chunkText string) string {
	if isBlank(override) {
		return BuildPrompt(chunkText)
	}
	return override
}

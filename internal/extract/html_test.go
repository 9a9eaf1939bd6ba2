package extract

import (
	"strings"
	"testing"
)

func TestFlattenHTML_Table(t *testing.T) {
	page := `<html><head><title>Buysheet</title><style>td{}</style></head><body>
<h1>Buysheet FW25</h1>
<table>
  <tr><th>Style</th><th>In DC Date</th><th>Cost Folio Season</th></tr>
  <tr><td>A100</td><td>2025-09-12</td><td>FALL 2025</td></tr>
  <tr><td>A101</td><td>2025-10-01</td><td></td></tr>
</table>
<script>var x = 1;</script>
<p>Comment: '25-SPRING reorder</p>
</body></html>`

	text, err := FlattenHTML(page)
	if err != nil {
		t.Fatalf("FlattenHTML failed: %v", err)
	}

	lines := strings.Split(text, "\n")
	want := []string{
		"Buysheet FW25",
		"Style | In DC Date | Cost Folio Season",
		"A100 | 2025-09-12 | FALL 2025",
		"A101 | 2025-10-01 |",
		"Comment: '25-SPRING reorder",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
	if strings.Contains(text, "var x") {
		t.Error("expected script content to be skipped")
	}
}

package llm

import (
	"strings"
	"testing"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	chunk := "Style,In DC Date,Cost Folio Season\nA1,2025-09-12,SPRING 2025"

	if BuildPrompt(chunk) != BuildPrompt(chunk) {
		t.Error("Expected identical prompts for identical chunks")
	}
}

func TestBuildPrompt_Content(t *testing.T) {
	chunk := "row 1 | In DC Date 2025-09-12 | Comment: '25-SPRING drop"
	prompt := BuildPrompt(chunk)

	mustContain := []string{
		chunk,
		`"Release Date"`,
		`"Season"`,
		"'In DC Date'",
		"'Cost Folio Season'",
		"'Comment'",
		"JSON array",
		"return: []",
	}
	for _, s := range mustContain {
		if !strings.Contains(prompt, s) {
			t.Errorf("Expected prompt to contain %q", s)
		}
	}
}

func TestBuildPrompt_EmbedsChunkVerbatim(t *testing.T) {
	// Percent signs and braces must survive formatting
	chunk := "Discount 50% {promo}\n\ttabbed line"
	if !strings.Contains(BuildPrompt(chunk), chunk) {
		t.Error("Expected chunk text to be embedded unchanged")
	}
}

func TestEffectivePrompt(t *testing.T) {
	chunk := "line"

	if got := EffectivePrompt("", chunk); got != BuildPrompt(chunk) {
		t.Error("Expected generated prompt when override is empty")
	}
	if got := EffectivePrompt("  \n", chunk); got != BuildPrompt(chunk) {
		t.Error("Expected generated prompt when override is blank")
	}
	if got := EffectivePrompt("custom instructions", chunk); got != "custom instructions" {
		t.Errorf("Expected override, got %q", got)
	}
}

package model

import (
	"regexp"
	"strings"
)

// Document is an ordered, read-only sequence of buysheet lines
type Document struct {
	Source string   // where the lines came from (path, URL, "-")
	Lines  []string // one record candidate per line
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// NewDocument splits text on \r?\n. Trailing empty lines are dropped, so
// empty text yields a document with no lines.
func NewDocument(source, text string) Document {
	lines := lineBreak.Split(text, -1)
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return Document{Source: source, Lines: lines[:end]}
}

// Chunk is a contiguous slice of document lines sent to the model as one request
type Chunk struct {
	Index int // 1-based, diagnostics only
	Lines []string
}

// Text joins the chunk lines with newlines
func (c Chunk) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Chunks splits the document into consecutive chunks of at most size lines.
// The last chunk may be shorter; nothing is padded or dropped.
func (d Document) Chunks(size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := make([]Chunk, 0, (len(d.Lines)+size-1)/size)
	for start := 0; start < len(d.Lines); start += size {
		end := start + size
		if end > len(d.Lines) {
			end = len(d.Lines)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks) + 1,
			Lines: d.Lines[start:end],
		})
	}
	return chunks
}

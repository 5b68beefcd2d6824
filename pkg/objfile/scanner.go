// Package objfile parses Wavefront OBJ meshes and MTL material libraries into
// render-ready vertex streams.
package objfile

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single directive line.
const maxLineSize = 1 << 20

const utf8BOM = "\ufeff"

// Record is one non-empty directive line split on whitespace.
type Record struct {
	Line    int      // 1-based line number
	Keyword string   // First token (v, f, newmtl, ...)
	Args    []string // Remaining tokens
}

// lineReader yields Records from a line-oriented text stream.
type lineReader struct {
	sc   *bufio.Scanner
	line int
	rec  Record
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineReader{sc: sc}
}

// Next advances to the next record, skipping blank lines and comments.
func (lr *lineReader) Next() bool {
	for lr.sc.Scan() {
		lr.line++
		text := lr.sc.Text()
		if lr.line == 1 {
			text = strings.TrimPrefix(text, utf8BOM)
		}
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		lr.rec = Record{Line: lr.line, Keyword: fields[0], Args: fields[1:]}
		return true
	}
	return false
}

// Record returns the current record.
func (lr *lineReader) Record() Record {
	return lr.rec
}

// Err returns the first read error, if any.
func (lr *lineReader) Err() error {
	return lr.sc.Err()
}

// Tokenize splits the whole stream into records.
func Tokenize(r io.Reader) ([]Record, error) {
	lr := newLineReader(r)
	var recs []Record
	for lr.Next() {
		recs = append(recs, lr.Record())
	}
	return recs, lr.Err()
}

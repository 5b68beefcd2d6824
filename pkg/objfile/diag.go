package objfile

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrFileNotFound is returned when a mesh or material file cannot be opened.
var ErrFileNotFound = errors.New("file not found")

// DiagnosticKind classifies a recoverable load problem.
type DiagnosticKind int

const (
	FileNotFound             DiagnosticKind = iota // Library file could not be opened
	UnknownMaterialReference                       // usemtl names a material missing from the library
	MalformedNumericField                          // Operand failed to parse as a number
	DegenerateFace                                 // Face with fewer than 3 vertices
	OutOfRangeIndex                                // Face index outside what has been parsed so far
	OrphanDirective                                // Material directive before any newmtl
)

// String returns a human-readable kind name.
func (k DiagnosticKind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case UnknownMaterialReference:
		return "UnknownMaterialReference"
	case MalformedNumericField:
		return "MalformedNumericField"
	case DegenerateFace:
		return "DegenerateFace"
	case OutOfRangeIndex:
		return "OutOfRangeIndex"
	case OrphanDirective:
		return "OrphanDirective"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Diagnostic describes a problem that was recovered from during a load.
type Diagnostic struct {
	Kind    DiagnosticKind
	File    string
	Line    int
	Message string
}

// String formats the diagnostic as "file:line: kind: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Kind, d.Message)
}

// reporter collects diagnostics and mirrors them to a logger.
type reporter struct {
	file  string
	log   *zap.Logger
	diags []Diagnostic
}

func newReporter(file string, log *zap.Logger) *reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &reporter{file: file, log: log}
}

func (r *reporter) report(kind DiagnosticKind, line int, format string, args ...any) {
	d := Diagnostic{
		Kind:    kind,
		File:    r.file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
	r.diags = append(r.diags, d)
	r.log.Warn(d.Message,
		zap.String("file", d.File),
		zap.Int("line", d.Line),
		zap.Stringer("kind", d.Kind),
	)
}

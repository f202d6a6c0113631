package datanorm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile is matched by every *EmptyFileError.
var ErrEmptyFile = errors.New("file has no data rows")

// ErrUnknownFileType is returned for a file type outside FileTypes.
var ErrUnknownFileType = errors.New("unknown file type")

// ParseError reports malformed CSV text.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csv parse error on line %d: %s", e.Line, e.Msg)
	}
	return "csv parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyFileError reports a CSV with a header but no data rows, or no
// content at all.
type EmptyFileError struct {
	FileType FileType
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("%s: %s", e.FileType, ErrEmptyFile.Error())
}

func (e *EmptyFileError) Is(target error) bool { return target == ErrEmptyFile }

// MissingColumnsError lists every required canonical field that no header
// alias satisfied.
type MissingColumnsError struct {
	FileType  FileType
	Missing   []string
	Available []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns for %s: %s (available: %s)",
		e.FileType, strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

// AliasAmbiguity notes that more than one alias of a field appeared in the
// header. Chosen is the header that supplied the value.
type AliasAmbiguity struct {
	Field   CanonicalField `json:"field"`
	Headers []string       `json:"headers"`
	Chosen  string         `json:"chosen"`
}

func (a AliasAmbiguity) String() string {
	return fmt.Sprintf("%s: %s (using %q)", a.Field, strings.Join(a.Headers, ", "), a.Chosen)
}

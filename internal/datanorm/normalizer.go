package datanorm

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NormalizeResult is the outcome of validating and rewriting one CSV upload.
// Callers must check Success before using Data.
type NormalizeResult struct {
	Success bool
	Data    []Row
	// Columns is the original header row, trimmed.
	Columns []string
	// Header is the output column order: present canonical fields in schema
	// order, then carried headers.
	Header      []string
	Ambiguities []AliasAmbiguity
	Err         error
}

// Normalize parses text as a headed CSV of type ft, checks that every
// required canonical field is present under some alias and rewrites each
// row onto canonical field names. It never panics; failures are reported
// through Err.
func Normalize(text string, ft FileType) NormalizeResult {
	if !ft.Valid() {
		return NormalizeResult{Err: fmt.Errorf("%w: %q", ErrUnknownFileType, ft)}
	}

	header, records, err := readStrict(strings.NewReader(text))
	if err != nil {
		return NormalizeResult{Err: err}
	}
	if len(records) == 0 {
		return NormalizeResult{Columns: header, Err: &EmptyFileError{FileType: ft}}
	}

	mapping := MapColumns(header, ft)
	if missing := mapping.Missing(ft); len(missing) > 0 {
		return NormalizeResult{
			Columns: header,
			Err:     &MissingColumnsError{FileType: ft, Missing: missing, Available: header},
		}
	}

	out := NormalizeResult{
		Success:     true,
		Columns:     header,
		Ambiguities: mapping.Ambiguities,
		Data:        make([]Row, 0, len(records)),
	}
	for _, f := range mapping.Fields {
		out.Header = append(out.Header, string(f))
	}
	out.Header = append(out.Header, mapping.Carried...)

	for _, rec := range records {
		raw := toRow(header, rec)
		row := make(Row, len(out.Header))
		for _, f := range mapping.Fields {
			row[string(f)] = raw[mapping.Source[f]]
		}
		for _, h := range mapping.Carried {
			row[h] = raw[h]
		}
		out.Data = append(out.Data, row)
	}
	return out
}

// Encode serializes a successful result back to CSV text using its Header
// order. Normalizing the encoded text again yields the same Data and Header.
func Encode(res NormalizeResult) (string, error) {
	if !res.Success {
		return "", errors.New("encode: result is not successful")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(res.Header); err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	rec := make([]string, len(res.Header))
	for _, row := range res.Data {
		for i, h := range res.Header {
			rec[i] = row[h]
		}
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("encode row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode flush: %w", err)
	}
	return buf.String(), nil
}

// ReadRows parses a headed CSV leniently for read-time loading: stray
// quotes are tolerated, short rows are padded with empty values and extra
// cells are dropped. Blank lines are skipped.
func ReadRows(r io.Reader) ([]string, []Row, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header = trimHeader(header)

	var rows []Row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return header, rows, fmt.Errorf("read row: %w", err)
		}
		if isBlankRecord(rec) {
			continue
		}
		rows = append(rows, toRow(header, rec))
	}
	return header, rows, nil
}

func readStrict(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, toParseError(err)
	}
	header = trimHeader(header)

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return header, nil, toParseError(err)
		}
		records = append(records, rec)
	}
	return header, records, nil
}

func toParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Msg: pe.Err.Error(), Err: err}
	}
	return &ParseError{Msg: err.Error(), Err: err}
}

func toRow(header, rec []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if _, dup := row[h]; dup {
			continue
		}
		if i < len(rec) {
			row[h] = rec[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil || n < 3 {
		return io.MultiReader(bytes.NewReader(buf[:n]), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}

package sponsor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrUnreadableReferenceData means no encoding/delimiter combination
	// produced a usable table from the reference file.
	ErrUnreadableReferenceData = errors.New("sponsor: unreadable reference data")

	// ErrMissingEmployerColumn means the table parsed but no recognized
	// employer-name header was found.
	ErrMissingEmployerColumn = errors.New("sponsor: no employer column found")
)

// Attempt order matters: UTF-16 first because the common government exports
// ship as UTF-16 with tabs, and a UTF-16 file read as Latin-1 "succeeds" with
// garbage columns.
var referenceEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{"utf-8", unicode.UTF8BOM},
	{"latin-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
}

var referenceDelimiters = []rune{'\t', ',', ';'}

var employerColumns = []string{
	"EmployerName",
	"Employer",
	"Employer_Name",
	"CompanyName",
	"Employer (Petitioner) Name",
}

// LoaderOptions tunes the optional row filtering applied when the reference
// file carries visa-class/case-status columns (the raw disclosure exports do).
type LoaderOptions struct {
	// MinCases keeps only employers appearing at least this many times.
	// Zero or one keeps everything.
	MinCases int
}

// ReferenceSet is the loaded, normalized employer-name set. Immutable after
// load; safe for concurrent readers.
type ReferenceSet struct {
	set   map[string]struct{}
	names []string
}

func (r *ReferenceSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

func (r *ReferenceSet) Contains(normalized string) bool {
	if r == nil {
		return false
	}
	_, ok := r.set[normalized]
	return ok
}

// Names returns the normalized employer names in sorted order.
func (r *ReferenceSet) Names() []string {
	if r == nil {
		return nil
	}
	return r.names
}

// NewReferenceSet builds a set directly from raw names. Used by tests and by
// callers that already hold a list.
func NewReferenceSet(raw []string) *ReferenceSet {
	set := make(map[string]struct{}, len(raw))
	for _, n := range raw {
		n = Normalize(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return fromSet(set)
}

func fromSet(set map[string]struct{}) *ReferenceSet {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return &ReferenceSet{set: set, names: names}
}

// LoadReference reads one or more delimited employer files of unknown encoding
// and delimiter and merges them into a single normalized set.
func LoadReference(paths []string, opts LoaderOptions) (*ReferenceSet, error) {
	merged := make(map[string]struct{})
	for _, p := range paths {
		names, err := loadFile(p, opts)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		for n := range names {
			merged[n] = struct{}{}
		}
	}
	return fromSet(merged), nil
}

func loadFile(path string, opts LoaderOptions) (map[string]struct{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	records, encName, delim, ok := sniffTable(raw)
	if !ok {
		return nil, ErrUnreadableReferenceData
	}
	log.Printf("[sponsor] %s: parsed as %s, delimiter %q, %d rows", path, encName, delim, len(records))

	return extractEmployers(records, opts)
}

// sniffTable tries every encoding/delimiter pair in order and accepts the
// first that yields a table with more than one column.
func sniffTable(raw []byte) (records [][]string, encName string, delim rune, ok bool) {
	for _, e := range referenceEncodings {
		text, err := decodeAs(raw, e.name, e.enc)
		if err != nil {
			continue
		}
		for _, d := range referenceDelimiters {
			recs := parseDelimited(text, d)
			if len(recs) > 0 && len(recs[0]) > 1 {
				return recs, e.name, d, true
			}
		}
	}
	return nil, "", 0, false
}

func decodeAs(raw []byte, name string, enc encoding.Encoding) (string, error) {
	if name == "utf-16" && len(raw)%2 != 0 {
		return "", errors.New("odd byte count for utf-16")
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", errors.New("decode produced invalid text")
	}
	return string(out), nil
}

// parseDelimited reads the whole document row by row, skipping malformed
// lines instead of failing the file.
func parseDelimited(text string, delim rune) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // bad line, skip
		}
		out = append(out, rec)
	}
	return out
}

func extractEmployers(records [][]string, opts LoaderOptions) (map[string]struct{}, error) {
	if len(records) == 0 {
		return nil, ErrUnreadableReferenceData
	}

	header := records[0]
	colIdx := -1
	for _, want := range employerColumns {
		for i, h := range header {
			if strings.TrimSpace(h) == want {
				colIdx = i
				break
			}
		}
		if colIdx >= 0 {
			break
		}
	}
	if colIdx < 0 {
		return nil, ErrMissingEmployerColumn
	}

	visaIdx := headerIndex(header, "VisaClass")
	statusIdx := headerIndex(header, "CaseStatus")

	counts := make(map[string]int)
	for _, rec := range records[1:] {
		if colIdx >= len(rec) {
			continue
		}
		if visaIdx >= 0 && visaIdx < len(rec) &&
			!strings.Contains(strings.ToLower(rec[visaIdx]), "h-1b") {
			continue
		}
		if statusIdx >= 0 && statusIdx < len(rec) {
			st := strings.ToLower(rec[statusIdx])
			if !strings.Contains(st, "approved") && !strings.Contains(st, "certified") {
				continue
			}
		}
		name := Normalize(rec[colIdx])
		if name == "" {
			continue
		}
		counts[name]++
	}

	min := opts.MinCases
	if min < 1 {
		min = 1
	}
	set := make(map[string]struct{}, len(counts))
	for name, n := range counts {
		if n >= min {
			set[name] = struct{}{}
		}
	}
	return set, nil
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

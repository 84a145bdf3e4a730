package clusterset

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// lz4Extension marks clusterset files stored as LZ4 frames.
const lz4Extension = ".lz4"

// binarySniffLength is the number of leading bytes scanned for a NUL byte.
const binarySniffLength = 8000

// Parse reads records of the form "<name> <cluster-id>," separated by arbitrary
// whitespace and returns them sorted by cluster id.
func Parse(name string, r io.Reader) (*ClusterSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, name, err)
	}

	if isBinary(data) {
		return nil, fmt.Errorf("%s: %w: binary content", name, ErrFormat)
	}

	elements, err := parseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return New(name, elements), nil
}

// ParseString is a convenience wrapper around Parse for in-memory content.
func ParseString(name, content string) (*ClusterSet, error) {
	return Parse(name, strings.NewReader(content))
}

// ReadFile opens and parses a clusterset file. The clusterset is named after the
// file's base name. Files ending in ".lz4" are decompressed on the fly.
func ReadFile(path string) (*ClusterSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, lz4Extension) {
		reader = lz4.NewReader(file)
	}

	return Parse(filepath.Base(path), reader)
}

// parseRecords reads every comma-terminated record. Text after the last comma
// is ignored, records without a name are skipped and an id that does not start
// with a digit reads as cluster 0.
func parseRecords(data []byte) ([]Element, error) {
	last := bytes.LastIndexByte(data, ',')
	if last < 0 {
		return nil, fmt.Errorf("%w: no records found", ErrFormat)
	}

	data = data[:last+1]
	elements := make([]Element, 0, bytes.Count(data, []byte{','}))
	pos := 0

	for {
		pos = skipSpace(data, pos)
		if pos >= len(data) {
			break
		}

		nameStart := pos
		for pos < len(data) && !isSpace(data[pos]) && data[pos] != ',' {
			pos++
		}

		name := string(data[nameStart:pos])
		comma := bytes.IndexByte(data[pos:], ',')
		field := data[pos : pos+comma]
		pos += comma + 1

		if name == "" {
			continue
		}

		elements = append(elements, Element{Name: name, Cluster: parseClusterID(field)})
	}

	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: no records found", ErrFormat)
	}

	return elements, nil
}

// parseClusterID reads the leading decimal digits of field. Values that do
// not fit in 64 bits saturate.
func parseClusterID(field []byte) uint64 {
	field = bytes.TrimLeft(field, " \t\r\n+")

	end := 0
	for end < len(field) && field[end] >= '0' && field[end] <= '9' {
		end++
	}

	if end == 0 {
		return 0
	}

	id, err := strconv.ParseUint(string(field[:end]), 10, 64)
	if err != nil {
		return math.MaxUint64
	}

	return id
}

// isBinary reports a NUL byte within the first binarySniffLength bytes.
func isBinary(data []byte) bool {
	sniff := data[:min(len(data), binarySniffLength)]

	return bytes.IndexByte(sniff, 0) >= 0
}

func skipSpace(data []byte, pos int) int {
	for pos < len(data) && isSpace(data[pos]) {
		pos++
	}

	return pos
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\r' || b == '\t'
}

// ListDir returns the names of the regular files and symlinks in dir, sorted
// lexicographically. This order fixes matrix row and column identity.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		mode := entry.Type()
		if mode.IsRegular() || mode&os.ModeSymlink != 0 {
			names = append(names, entry.Name())
		}
	}

	SortNames(names)

	return names, nil
}

// SortNames sorts file names lexicographically by their full byte value.
func SortNames(names []string) {
	slices.Sort(names)
}

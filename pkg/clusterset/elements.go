package clusterset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// ErrEmptyList indicates an element list file without any name.
var ErrEmptyList = errors.New("clusterset: element list is empty")

// maxListLineBytes caps a single element name in a list file.
const maxListLineBytes = 1 << 20

// GenerateElementList returns the deduplicated, lexicographically sorted names
// of every element across the given clustersets.
func GenerateElementList(sets ...*ClusterSet) []string {
	total := 0
	for _, cs := range sets {
		total += cs.Len()
	}

	names := make([]string, 0, total)

	for _, cs := range sets {
		if cs == nil {
			continue
		}

		names = append(names, cs.Names()...)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// ReadElementList parses a list with one element name per line.
// Blank lines are skipped; surrounding whitespace is kept out of the names.
func ReadElementList(r io.Reader) ([]string, error) {
	var names []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxListLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		names = append(names, line)
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, scanErr)
	}

	if len(names) == 0 {
		return nil, ErrEmptyList
	}

	return names, nil
}

// LoadElementList reads an element list file.
func LoadElementList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer file.Close()

	names, err := ReadElementList(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return names, nil
}

// WriteElementList writes one name per line.
func WriteElementList(w io.Writer, names []string) error {
	buffered := bufio.NewWriter(w)

	for _, name := range names {
		_, err := buffered.WriteString(name + "\n")
		if err != nil {
			return fmt.Errorf("write element list: %w", err)
		}
	}

	flushErr := buffered.Flush()
	if flushErr != nil {
		return fmt.Errorf("write element list: %w", flushErr)
	}

	return nil
}

// Package clusterset loads clusterset files into a canonical, cluster-sorted
// sequence of named elements and provides the helpers the congruency
// calculators use to walk clusters and match names.
package clusterset

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
)

// Sentinel errors.
var (
	// ErrRead indicates a clusterset or list file could not be opened or fully read.
	ErrRead = errors.New("clusterset: read failed")
	// ErrFormat indicates a clusterset file without any parsable record, or a malformed record.
	ErrFormat = errors.New("clusterset: malformed file")
)

// Element is the membership of one named item in one cluster.
type Element struct {
	Name    string
	Cluster uint64
}

// ClusterSet is one partition of named elements into clusters.
// Elements are always sorted by cluster id, so the members of a cluster are contiguous.
type ClusterSet struct {
	// Name identifies the clusterset, usually its file name.
	Name     string
	Elements []Element
}

// New builds a ClusterSet from elements, sorting them stably by cluster id.
// The elements slice is copied.
func New(name string, elements []Element) *ClusterSet {
	sorted := slices.Clone(elements)
	slices.SortStableFunc(sorted, compareCluster)

	return &ClusterSet{Name: name, Elements: sorted}
}

func compareCluster(a, b Element) int {
	switch {
	case a.Cluster < b.Cluster:
		return -1
	case a.Cluster > b.Cluster:
		return 1
	default:
		return 0
	}
}

// Len returns the number of elements.
func (cs *ClusterSet) Len() int {
	if cs == nil {
		return 0
	}

	return len(cs.Elements)
}

// Clusters yields each cluster as a contiguous sub-slice of Elements.
// The yielded slices alias the clusterset and must not be modified.
func (cs *ClusterSet) Clusters() iter.Seq[[]Element] {
	return func(yield func([]Element) bool) {
		if cs == nil {
			return
		}

		start := 0

		for start < len(cs.Elements) {
			end := start + 1
			for end < len(cs.Elements) && cs.Elements[end].Cluster == cs.Elements[start].Cluster {
				end++
			}

			if !yield(cs.Elements[start:end:end]) {
				return
			}

			start = end
		}
	}
}

// ClusterCount returns the number of distinct clusters.
func (cs *ClusterSet) ClusterCount() int {
	count := 0

	for range cs.Clusters() {
		count++
	}

	return count
}

// Names returns element names in clusterset order.
func (cs *ClusterSet) Names() []string {
	names := make([]string, cs.Len())

	for i, e := range cs.Elements {
		names[i] = e.Name
	}

	return names
}

// NameSet returns the set of distinct element names.
func (cs *ClusterSet) NameSet() map[string]struct{} {
	set := make(map[string]struct{}, cs.Len())

	for _, e := range cs.Elements {
		set[e.Name] = struct{}{}
	}

	return set
}

// Clone returns a deep copy that can be pruned without touching the original.
func (cs *ClusterSet) Clone() *ClusterSet {
	if cs == nil {
		return nil
	}

	return &ClusterSet{Name: cs.Name, Elements: slices.Clone(cs.Elements)}
}

// Release drops the element storage. The clusterset is empty afterwards.
func (cs *ClusterSet) Release() {
	if cs == nil {
		return
	}

	clear(cs.Elements)
	cs.Elements = nil
}

// Format writes the clusters as "name (n): {a, b}, {c}" followed by a newline.
func (cs *ClusterSet) Format(w io.Writer) error {
	groups := make([]string, 0, cs.ClusterCount())

	for cluster := range cs.Clusters() {
		names := make([]string, len(cluster))
		for i, e := range cluster {
			names[i] = e.Name
		}

		groups = append(groups, "{"+strings.Join(names, ", ")+"}")
	}

	_, err := fmt.Fprintf(w, "%s (%d): %s\n", cs.Name, len(groups), strings.Join(groups, ", "))
	if err != nil {
		return fmt.Errorf("format clusterset %s: %w", cs.Name, err)
	}

	return nil
}

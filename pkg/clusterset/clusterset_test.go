package clusterset_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/matches/pkg/clusterset"
)

func TestParse_GroupsByCluster(t *testing.T) {
	t.Parallel()

	cs, err := clusterset.ParseString("a.txt", "c 2, a 1,\n b 1,")
	require.NoError(t, err)

	require.Equal(t, 3, cs.Len())
	assert.Equal(t, []clusterset.Element{
		{Name: "a", Cluster: 1},
		{Name: "b", Cluster: 1},
		{Name: "c", Cluster: 2},
	}, cs.Elements)
	assert.Equal(t, 2, cs.ClusterCount())
	assert.Equal(t, "a.txt", cs.Name)
}

func TestParse_WhitespaceVariants(t *testing.T) {
	t.Parallel()

	cs, err := clusterset.ParseString("ws", "\n\n  x 10,\r\n\ty   3 ,\nz\n3,\n")
	require.NoError(t, err)

	assert.Equal(t, []clusterset.Element{
		{Name: "y", Cluster: 3},
		{Name: "z", Cluster: 3},
		{Name: "x", Cluster: 10},
	}, cs.Elements)
}

func TestParse_StableWithinCluster(t *testing.T) {
	t.Parallel()

	cs, err := clusterset.ParseString("s", "d 5, a 1, c 5, b 1,")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "d", "c"}, cs.Names())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "whitespace_only", content: " \n\n "},
		{name: "no_comma", content: "a 1 b 2"},
		{name: "commas_only", content: " , ,\n"},
		{name: "binary", content: "a 1,\x00b 2,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := clusterset.ParseString(tt.name, tt.content)
			require.ErrorIs(t, err, clusterset.ErrFormat)
		})
	}
}

func TestParse_LenientRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []clusterset.Element
	}{
		{
			name:    "unterminated_tail_dropped",
			content: "a 1, b 1, c 2",
			want:    []clusterset.Element{{Name: "a", Cluster: 1}, {Name: "b", Cluster: 1}},
		},
		{
			name:    "missing_id_is_zero",
			content: "a , b 2,",
			want:    []clusterset.Element{{Name: "a", Cluster: 0}, {Name: "b", Cluster: 2}},
		},
		{
			name:    "non_numeric_id_is_zero",
			content: "a x1, b 3,",
			want:    []clusterset.Element{{Name: "a", Cluster: 0}, {Name: "b", Cluster: 3}},
		},
		{
			name:    "negative_id_is_zero",
			content: "a -1,",
			want:    []clusterset.Element{{Name: "a", Cluster: 0}},
		},
		{
			name:    "trailing_text_after_digits",
			content: "a 12abc,",
			want:    []clusterset.Element{{Name: "a", Cluster: 12}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cs, err := clusterset.ParseString(tt.name, tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cs.Elements)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "set1")
	require.NoError(t, os.WriteFile(path, []byte("a 1, b 1, c 2,"), 0o600))

	cs, err := clusterset.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "set1", cs.Name)
	assert.Equal(t, 3, cs.Len())
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := clusterset.ReadFile(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, clusterset.ErrRead)
}

func TestReadFile_LZ4(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	zw := lz4.NewWriter(&buf)
	_, err := zw.Write([]byte("a 1, b 1, c 2,"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "set.lz4")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	cs, err := clusterset.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cs.Names())
	assert.Equal(t, "set.lz4", cs.Name)
}

func TestClusters(t *testing.T) {
	t.Parallel()

	cs := clusterset.New("x", []clusterset.Element{
		{Name: "a", Cluster: 2},
		{Name: "b", Cluster: 1},
		{Name: "c", Cluster: 2},
		{Name: "d", Cluster: 7},
	})

	var sizes []int
	for cluster := range cs.Clusters() {
		sizes = append(sizes, len(cluster))
	}

	assert.Equal(t, []int{1, 2, 1}, sizes)
}

func TestClusters_EarlyStop(t *testing.T) {
	t.Parallel()

	cs := clusterset.New("x", []clusterset.Element{{Name: "a", Cluster: 1}, {Name: "b", Cluster: 2}})

	seen := 0
	for range cs.Clusters() {
		seen++

		break
	}

	assert.Equal(t, 1, seen)
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	cs, err := clusterset.ParseString("x", "a 1, b 1,")
	require.NoError(t, err)

	dup := cs.Clone()
	dup.Elements[0].Name = "changed"
	dup.Release()

	assert.Equal(t, "a", cs.Elements[0].Name)
	assert.Equal(t, 2, cs.Len())
	assert.Equal(t, 0, dup.Len())
}

func TestNameSet(t *testing.T) {
	t.Parallel()

	cs, err := clusterset.ParseString("x", "a 1, b 1, a 2,")
	require.NoError(t, err)

	names := cs.NameSet()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "a")
	assert.NotContains(t, names, "z")
}

func TestFormat(t *testing.T) {
	t.Parallel()

	cs, err := clusterset.ParseString("set1", "a 1, b 1, c 2,")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cs.Format(&buf))
	assert.Equal(t, "set1 (2): {a, b}, {c}\n", buf.String())
}

func TestListDir_SortedRegularFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b", "a", "C"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x 1,"), 0o600))
	}

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.Symlink(filepath.Join(dir, "a"), filepath.Join(dir, "link")))

	names, err := clusterset.ListDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "a", "b", "link"}, names)
}

func TestListDir_Missing(t *testing.T) {
	t.Parallel()

	_, err := clusterset.ListDir(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, clusterset.ErrRead)
}

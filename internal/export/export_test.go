package export

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reviews-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func sampleReviews() []model.Review {
	return []model.Review{
		{
			SourceID:     "B000TEST01",
			RecordID:     "r1",
			AuthorName:   strPtr("Jane"),
			Rating:       5,
			Title:        strPtr("Great"),
			Body:         strPtr("Loved it"),
			Verified:     true,
			Date:         strPtr("2023-01-02"),
			Variant:      strPtr("Color: Black"),
			HelpfulCount: 3,
		},
		{SourceID: "B000TEST01", RecordID: "r2", Rating: 2},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"", FormatJSON, false},
		{"ndjson", FormatNDJSON, false},
		{" NDJSON ", FormatNDJSON, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "reviews.json")
	require.NoError(t, WriteJSON(sampleReviews(), path, 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "r1", decoded[0]["record_id"])
	assert.Equal(t, "Jane", decoded[0]["author_name"])

	// Optional fields on the second review are explicit nulls.
	v, ok := decoded[1]["author_name"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestWriteNDJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reviews.ndjson")
	require.NoError(t, WriteNDJSON(sampleReviews(), path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "r1", lines[0]["record_id"])
	assert.Equal(t, float64(2), lines[1]["rating"])
}

func TestWrite_Dispatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "a.json")
	require.NoError(t, Write(sampleReviews(), jsonPath, FormatJSON, 0))
	assert.FileExists(t, jsonPath)

	ndPath := filepath.Join(dir, "a.ndjson")
	require.NoError(t, Write(sampleReviews(), ndPath, FormatNDJSON, 0))
	assert.FileExists(t, ndPath)
}

func TestWriteJSON_EmptySlice(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteJSON(nil, path, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

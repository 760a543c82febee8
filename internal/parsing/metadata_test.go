package parsing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFromFilename(t *testing.T) {
	meta, ok := MetadataFromFilename("/tmp/uploads/St105_ME0003_AUDUBON_11-10-2025.xlsx")
	require.True(t, ok)
	assert.Equal(t, "St105", meta.Station)
	assert.Equal(t, "ME0003", meta.ID)
	assert.Equal(t, "AUDUBON", meta.Creator)
	assert.Equal(t, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), meta.Date)
}

func TestMetadataFromFilenameSingleDigitDate(t *testing.T) {
	meta, ok := MetadataFromFilename("St7_RF001_SMITH_1-5-2024.xlsx")
	require.True(t, ok)
	assert.Equal(t, "St7", meta.Station)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), meta.Date)
}

func TestMetadataFromFilenameNonConforming(t *testing.T) {
	for _, name := range []string{
		"quotes.xlsx",
		"St105_ME0003.xlsx",
		"St105_ME0003_AUDUBON_2025-11-10.xlsx",
	} {
		_, ok := MetadataFromFilename(name)
		assert.False(t, ok, "filename %q", name)
	}
}

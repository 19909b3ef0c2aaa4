package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableLoads(t *testing.T) {
	c := Default()
	assert.Equal(t,
		[]string{"Permian Basin", "Eagle Ford", "Haynesville", "Bakken", "Marcellus"},
		c.Basins())
}

func TestClassify(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		state    string
		county   string
		expected string
	}{
		{"permian core", "Texas", "Midland", "Permian Basin"},
		{"permian new mexico", "New Mexico", "Lea", "Permian Basin"},
		{"eagle ford", "Texas", "Karnes", "Eagle Ford"},
		{"haynesville louisiana", "Louisiana", "De Soto", "Haynesville"},
		{"bakken", "North Dakota", "McKenzie", "Bakken"},
		{"marcellus", "Pennsylvania", "Washington", "Marcellus"},
		{"fallback unknown county", "Texas", "Nonexistent County", Other},
		{"fallback unknown state", "Oklahoma", "Midland", Other},
		{"fallback empty state", "", "Midland", Other},
		{"fallback empty county", "Texas", "", Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.state, tt.county))
		})
	}
}

func TestClassifyNormalization(t *testing.T) {
	c := Default()

	assert.Equal(t, "Permian Basin", c.Classify("TEXAS", "midland"))
	assert.Equal(t, "Permian Basin", c.Classify(" texas ", " Midland "))
	assert.Equal(t, "Permian Basin", c.Classify("Texas", "Tom  Green"))
	assert.Equal(t, "Haynesville", c.Classify("Louisiana", "DE SOTO"))
	assert.Equal(t, "Eagle Ford", c.Classify("Texas", "La Salle"))
	assert.Equal(t, "Eagle Ford", c.Classify("Texas", "DeWitt"))
	// Punctuation stripped on the data side.
	assert.Equal(t, "Eagle Ford", c.Classify("Texas", "La Salle."))
}

func TestLoadCustomTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	content := `basins:
  - name: Test Basin
    states:
      - state: Texas
        counties: [Midland]
  - name: Shadow Basin
    states:
      - state: Texas
        counties: [Midland, Ector]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	// First basin in declaration order wins for the shared county.
	assert.Equal(t, "Test Basin", c.Classify("Texas", "Midland"))
	assert.Equal(t, "Shadow Basin", c.Classify("Texas", "Ector"))
	assert.Equal(t, Other, c.Classify("Texas", "Reeves"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/regions.yaml")
	assert.Error(t, err)
}

func TestLoadEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basins: []\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docqa/internal/models"
	"github.com/xhad/docqa/pkg/store"
)

func testChunks() []models.Chunk {
	return []models.Chunk{
		{Text: "chunk zero", Tokens: 2, Index: 0},
		{Text: "chunk three", Tokens: 2, Index: 3},
		{Text: "chunk seven", Tokens: 2, Index: 7},
	}
}

func TestGetByIDs(t *testing.T) {
	s := store.New(testChunks())

	// Unknown ids, including the padding sentinel, disappear silently.
	chunks := s.GetByIDs([]int{3, -1, 7})
	require.Len(t, chunks, 2)
	assert.Equal(t, "chunk three", chunks[0].Text)
	assert.Equal(t, "chunk seven", chunks[1].Text)

	assert.Empty(t, s.GetByIDs([]int{99}))
	assert.Empty(t, s.GetByIDs(nil))
}

func TestAll(t *testing.T) {
	s := store.New(testChunks())

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, 0, all[0].Index)
	assert.Equal(t, 3, all[1].Index)
	assert.Equal(t, 7, all[2].Index)
}

func TestLen(t *testing.T) {
	assert.Equal(t, 3, store.New(testChunks()).Len())
	assert.Equal(t, 0, store.New(nil).Len())
}

func TestSaveLoad(t *testing.T) {
	s := store.New(testChunks())

	path := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, s.Save(path))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.All(), loaded.All())
}

package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Record struct {
	ID      string
	Version int64
}

type chapterIn struct {
	Record
	Title string
	Tags  []string
}

type chapterOut struct {
	ID      string
	Version int64
	Title   string
	Tags    []string
}

func TestTo_FlattensEmbedded(t *testing.T) {
	in := &chapterIn{Record: Record{ID: "c1", Version: 2}, Title: "Fog", Tags: []string{"draft"}}

	out, err := To[chapterOut](in)
	require.NoError(t, err)
	assert.Equal(t, "c1", out.ID)
	assert.Equal(t, int64(2), out.Version)
	assert.Equal(t, "Fog", out.Title)

	// DeepCopy 不共享切片
	in.Tags[0] = "final"
	assert.Equal(t, []string{"draft"}, out.Tags)
}

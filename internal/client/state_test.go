package client

import (
	"path/filepath"
	"testing"

	"github.com/haierkeys/novel-sync-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CommitAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	st, err := OpenState(path)
	require.NoError(t, err)

	cursor, err := st.Cursor()
	require.NoError(t, err)
	assert.Zero(t, cursor)

	rec := AppliedRecord{Kind: domain.KindNovel, ID: "n1", Version: 3}
	require.NoError(t, st.Commit(1700000000123, []AppliedRecord{rec}))
	require.NoError(t, st.Close())

	st, err = OpenState(path)
	require.NoError(t, err)
	defer st.Close()

	cursor, err = st.Cursor()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), cursor)

	ok, err := st.IsApplied(rec)
	require.NoError(t, err)
	assert.True(t, ok)

	// 不同版本或不同类型不算已应用
	ok, err = st.IsApplied(AppliedRecord{Kind: domain.KindNovel, ID: "n1", Version: 4})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = st.IsApplied(AppliedRecord{Kind: domain.KindIdea, ID: "n1", Version: 3})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestState_Reset(t *testing.T) {
	st, err := OpenState(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer st.Close()

	rec := AppliedRecord{Kind: domain.KindChapter, ID: "c1", Version: 1}
	require.NoError(t, st.Commit(42, []AppliedRecord{rec}))
	require.NoError(t, st.Reset())

	cursor, err := st.Cursor()
	require.NoError(t, err)
	assert.Zero(t, cursor)

	ok, err := st.IsApplied(rec)
	require.NoError(t, err)
	assert.False(t, ok)
}

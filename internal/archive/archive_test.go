package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()

	a, err := Open(filepath.Join(t.TempDir(), "archive.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return a
}

func TestArchiveRecordsGame(t *testing.T) {
	a := openTestArchive(t)

	a.GameStarted("g1")
	a.MoveRecorded("g1", 1, "e2", "e4", "fen-after-1")
	a.MoveRecorded("g1", 2, "e7", "e5", "fen-after-2")
	a.GameFinished("g1", "fen-after-2")
	a.Flush()

	games, err := a.ListGames(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, 2, g.Moves)
	assert.Equal(t, "fen-after-2", g.FinalFEN)
	require.NotNil(t, g.FinishedAt)
	assert.False(t, g.FinishedAt.Before(g.CreatedAt))
}

func TestArchiveUnfinishedGame(t *testing.T) {
	a := openTestArchive(t)

	a.GameStarted("g1")
	a.MoveRecorded("g1", 1, "e2", "e4", "fen")
	a.Flush()

	games, err := a.ListGames(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Nil(t, games[0].FinishedAt)
	assert.Empty(t, games[0].FinalFEN)
}

func TestArchiveListLimit(t *testing.T) {
	a := openTestArchive(t)

	for _, id := range []string{"g1", "g2", "g3"} {
		a.GameStarted(id)
	}
	a.Flush()

	games, err := a.ListGames(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, games, 2)

	games, err = a.ListGames(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, games, 3)
}

func TestArchiveDuplicateRecordsIgnored(t *testing.T) {
	a := openTestArchive(t)

	a.GameStarted("g1")
	a.GameStarted("g1")
	a.MoveRecorded("g1", 1, "e2", "e4", "fen")
	a.MoveRecorded("g1", 1, "e2", "e4", "fen")
	a.Flush()

	games, err := a.ListGames(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
}

func TestArchiveCloseIdempotent(t *testing.T) {
	a := openTestArchive(t)

	a.GameStarted("g1")
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

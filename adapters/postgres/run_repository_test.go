package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gounc/domain/core"
	"gounc/domain/uncertainty"
	"gounc/internal/migration"
	"gounc/internal/testkit"
)

func TestRunRow_Summary(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	row := runRow{ID: "0190c1e2-0000-7000-8000-000000000001", Model: "impact", Scheme: "saltelli", Rows: 60, Failed: 2, Fingerprint: "abc", CreatedAt: created}

	sum := row.summary()
	assert.Equal(t, core.RunID(row.ID), sum.RunID)
	assert.Equal(t, uncertainty.SchemeSaltelli, sum.Scheme)
	assert.Equal(t, 60, sum.Rows)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, time.UTC, sum.CreatedAt.Time().Location())
	assert.True(t, created.Equal(sum.CreatedAt.Time()))
}

func TestRunRepository_Live(t *testing.T) {
	url := os.Getenv("GOUNC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping live test: GOUNC_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	e, err := testkit.IshigamiRun(ctx, 8, false)
	require.NoError(t, err)
	rec, err := e.Record()
	require.NoError(t, err)

	repo := NewRunRepository(db)
	require.NoError(t, repo.Save(ctx, rec))
	defer repo.Delete(ctx, rec.ID())

	got, err := repo.Get(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, rec.Manifest.Fingerprint, got.Manifest.Fingerprint)
	assert.NoError(t, got.Manifest.Validate())

	require.NoError(t, repo.SaveFrames(ctx, rec.ID(), e.Frames()))
	frames, err := repo.Frames(ctx, rec.ID())
	require.NoError(t, err)
	assert.Len(t, frames, len(e.Frames()))

	sums, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, sums, 1)

	require.NoError(t, repo.Delete(ctx, rec.ID()))
	_, err = repo.Get(ctx, rec.ID())
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/consolidator"
	"github.com/listenupapp/tagcurator/internal/corpus"
	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/logger"
	"github.com/listenupapp/tagcurator/internal/normalize"
	"github.com/listenupapp/tagcurator/internal/similarity"
	"github.com/listenupapp/tagcurator/internal/store"
)

type testService struct {
	*CurationService
	store        *store.Store
	corpus       *corpus.Corpus
	consolidator *consolidator.Consolidator
	analyzer     *analyzer.Analyzer
}

func setupTestService(t *testing.T, records []domain.Record) *testService {
	t.Helper()

	st, err := store.New("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ReplaceRecords(context.Background(), records))

	c := corpus.New(records)
	a := analyzer.New(normalize.Default(), nil)
	con := consolidator.New(c, a, similarity.New(a, similarity.DefaultWeights(), nil),
		consolidator.DefaultConfig(), consolidator.WithRecorder(st))
	con.Sync()

	return &testService{
		CurationService: NewCurationService(st, c, con, logger.Discard().Logger),
		store:           st,
		corpus:          c,
		consolidator:    con,
		analyzer:        a,
	}
}

func progMetalRecords() []domain.Record {
	return []domain.Record{
		{AlbumID: "album1", Tags: []string{"Prog Metal"}},
		{AlbumID: "album2", Tags: []string{"prog metal"}},
		{AlbumID: "album3", Tags: []string{"Progressive Metal", "Instrumental"}},
	}
}

func TestImportRecords_Replace(t *testing.T) {
	svc := setupTestService(t, progMetalRecords())
	ctx := context.Background()
	before := svc.corpus.Version()

	report, err := svc.ImportRecords(ctx, []domain.Record{{AlbumID: "x", Tags: []string{"Shoegaze"}}}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tags)
	assert.Greater(t, svc.corpus.Version(), before)
	assert.True(t, svc.analyzer.HasTag("shoegaze"))
	assert.False(t, svc.analyzer.HasTag("prog metal"))

	stored, err := svc.store.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestImportRecords_Append(t *testing.T) {
	svc := setupTestService(t, progMetalRecords())
	ctx := context.Background()

	_, err := svc.ImportRecords(ctx, []domain.Record{{AlbumID: "album4", Tags: []string{"Djent"}}}, true)
	require.NoError(t, err)

	assert.Equal(t, 4, svc.corpus.Len())
	assert.Equal(t, 1, svc.analyzer.Frequency("djent"))
	assert.Equal(t, 2, svc.analyzer.Frequency("prog metal"))
	assert.Equal(t, svc.corpus.Version(), svc.analyzer.CorpusVersion())

	stored, err := svc.store.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
	assert.Equal(t, "album4", stored[3].AlbumID)
}

func TestImportRecords_StalesQueuedMerges(t *testing.T) {
	svc := setupTestService(t, progMetalRecords())
	ctx := context.Background()

	_, err := svc.consolidator.QueueMerge("progressive metal", []string{"prog metal"}, false)
	require.NoError(t, err)

	_, err = svc.ImportRecords(ctx, []domain.Record{{AlbumID: "album4", Tags: []string{"Djent"}}}, true)
	require.NoError(t, err)

	_, err = svc.ApplyMerges(ctx)
	require.Error(t, err)
	assert.Len(t, svc.consolidator.PendingMerges(), 1, "stale merges stay queued for review")
}

func TestApplyMerges(t *testing.T) {
	svc := setupTestService(t, progMetalRecords())
	ctx := context.Background()

	_, err := svc.consolidator.QueueMerge("progressive metal", []string{"prog metal"}, false)
	require.NoError(t, err)

	report, err := svc.ApplyMerges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.AlbumsRewritten)

	history, err := svc.store.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "progressive metal", history[0].Primary)
}

func TestImportFile(t *testing.T) {
	svc := setupTestService(t, nil)
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"album_id":"a","tags":["Jazz"]},{"album_id":"b"}]`), 0o600))

	report, err := svc.ImportFile(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, 1, report.Skipped)
}

func TestReadRecordsFile_Errors(t *testing.T) {
	_, err := ReadRecordsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read records")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"album_id":`), 0o600))
	_, err = ReadRecordsFile(path)
	assert.ErrorContains(t, err, "parse records")
}

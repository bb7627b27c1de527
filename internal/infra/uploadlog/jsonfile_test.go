package uploadlog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *JSONFile {
	t.Helper()
	l, err := NewJSONFile(filepath.Join(t.TempDir(), "upload_log.json"))
	require.NoError(t, err)
	return l
}

func record(hash string) entity.UploadRecord {
	return entity.UploadRecord{
		OriginalFilename: "clip.mp4",
		FileType:         "video/mp4",
		ContentHash:      hash,
		StoredFilename:   hash + ".mp4",
	}
}

func TestAppendAndFind(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	require.NoError(t, l.Append(ctx, record("aaa")))

	got, found, err := l.FindByHash(ctx, "aaa")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "aaa.mp4", got.StoredFilename)

	_, found, err = l.FindByHash(ctx, "bbb")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAppendRejectsDuplicateHash(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	require.NoError(t, l.Append(ctx, record("aaa")))
	assert.Error(t, l.Append(ctx, record("aaa")))

	records, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLogSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "upload_log.json")

	first, err := NewJSONFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, record("aaa")))

	second, err := NewJSONFile(path)
	require.NoError(t, err)
	records, err := second.All(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, l.Append(ctx, record(fmt.Sprintf("hash-%02d", i))))
		}(i)
	}
	wg.Wait()

	records, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, records, n)
}

package service

import (
	"bitwise74/unmask-api/db"
	"bitwise74/unmask-api/internal/model"
	"bitwise74/unmask-api/internal/quota"
	"bitwise74/unmask-api/internal/session"
	"context"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector(t *testing.T, c Classifier) (*Detector, string) {
	t.Helper()

	dir := t.TempDir()
	ls, err := NewLocalStore(dir)
	require.NoError(t, err)

	q := NewClassifyQueue(c, 1, 4)
	q.StartWorkerPool()

	return &Detector{
		DB:      db.NewTest(t),
		Files:   ls,
		Queue:   q,
		Quota:   quota.New(quota.DefaultLimit),
		MaxSize: 10 << 20,
	}, dir
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}

func TestDetector_GuestQuota(t *testing.T) {
	d, dir := newDetector(t, HashClassifier{})
	ctx := context.Background()
	s := session.New()

	for i := 0; i < 2; i++ {
		u, err := d.Detect(ctx, s, fileHeader(t, "face.png", pngBytes(t, uint8(i))))
		require.NoError(t, err)
		require.NotNil(t, u.GuestSessionID)
		assert.Equal(t, s.GuestID, *u.GuestSessionID)
		assert.Nil(t, u.UserID)
	}

	assert.Equal(t, 2, s.GuestCount)
	assert.Equal(t, 0, d.Quota.Remaining(s))

	_, err := d.Detect(ctx, s, fileHeader(t, "face.png", pngBytes(t, 3)))
	var derr *DetectError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusTooManyRequests, derr.Status)
	assert.ErrorIs(t, err, quota.ErrExceeded)

	var count int64
	require.NoError(t, d.DB.Model(&model.Upload{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
	assert.Len(t, storedFiles(t, dir), 2)
}

func TestDetector_FailuresDontConsumeQuota(t *testing.T) {
	d, dir := newDetector(t, stubClassifier{err: errModel})
	ctx := context.Background()
	s := session.New()

	t.Run("wrong type", func(t *testing.T) {
		_, err := d.Detect(ctx, s, fileHeader(t, "notes.txt", []byte("hello")))
		var derr *DetectError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, http.StatusBadRequest, derr.Status)
	})

	t.Run("classifier error removes the stored file", func(t *testing.T) {
		_, err := d.Detect(ctx, s, fileHeader(t, "face.png", pngBytes(t, 1)))
		var derr *DetectError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, http.StatusBadGateway, derr.Status)
		assert.Empty(t, storedFiles(t, dir))
	})

	assert.Zero(t, s.GuestCount)
	assert.Equal(t, 2, d.Quota.Remaining(s))
}

func TestDetector_AuthenticatedIsUnlimited(t *testing.T) {
	d, _ := newDetector(t, HashClassifier{})
	ctx := context.Background()

	s := session.New()
	s.Login("user-1")

	for i := 0; i < 3; i++ {
		u, err := d.Detect(ctx, s, fileHeader(t, "face.png", pngBytes(t, uint8(i))))
		require.NoError(t, err)
		require.NotNil(t, u.UserID)
		assert.Equal(t, "user-1", *u.UserID)
	}

	h, err := d.History(ctx, s, 0)
	require.NoError(t, err)
	assert.Len(t, h, 3)
}

func TestDetector_HistoryIsolation(t *testing.T) {
	d, _ := newDetector(t, HashClassifier{})
	ctx := context.Background()

	g1 := session.New()
	g1.GuestID = "g1"
	g2 := session.New()
	g2.GuestID = "g2"

	first, err := d.Detect(ctx, g1, fileHeader(t, "one.png", pngBytes(t, 1)))
	require.NoError(t, err)
	second, err := d.Detect(ctx, g1, fileHeader(t, "two.png", pngBytes(t, 2)))
	require.NoError(t, err)

	h1, err := d.History(ctx, g1, 0)
	require.NoError(t, err)
	require.Len(t, h1, 2)
	// Newest first
	assert.Equal(t, second.ID, h1[0].ID)
	assert.Equal(t, first.ID, h1[1].ID)

	h2, err := d.History(ctx, g2, 0)
	require.NoError(t, err)
	assert.Empty(t, h2)

	h, err := d.History(ctx, session.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, h)

	// Images are only served to their owner
	rc, err := d.Open(ctx, g1, first.Filename)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, pngBytes(t, 1), data)

	_, err = d.Open(ctx, g2, first.Filename)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

package task_test

import (
	"context"
	"errors"
	"image"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classicphotos/internal/photos"
	"classicphotos/internal/services"
	"classicphotos/internal/task"
)

func newRecord(t *testing.T) *photos.Record {
	t.Helper()
	source, err := url.Parse("https://example.com/photo.png")
	require.NoError(t, err)
	return photos.NewRecord("Photo", source)
}

func okFetcher(data []byte) task.FetcherFunc {
	return func(context.Context, *url.URL) ([]byte, error) { return data, nil }
}

func okDecoder(img image.Image) task.DecoderFunc {
	return func([]byte) (image.Image, error) { return img, nil }
}

func countCalls(counter *atomic.Int32) func() {
	return func() { counter.Add(1) }
}

func TestFetchSuccessMarksDownloaded(t *testing.T) {
	rec := newRecord(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	tk := task.NewFetch(rec, okFetcher([]byte("png")), okDecoder(img), nil)
	var calls atomic.Int32
	tk.OnComplete(countCalls(&calls))

	require.NoError(t, tk.Run(context.Background()))

	assert.Equal(t, photos.StateDownloaded, rec.State())
	assert.Same(t, img, rec.Payload())
	assert.Equal(t, task.OutcomeDownloaded, tk.Outcome())
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, task.KindFetch, tk.Kind())
}

func TestFetchFailureMarksFailed(t *testing.T) {
	rec := newRecord(t)
	fetcher := task.FetcherFunc(func(context.Context, *url.URL) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	tk := task.NewFetch(rec, fetcher, okDecoder(nil), nil)
	var calls atomic.Int32
	tk.OnComplete(countCalls(&calls))

	err := tk.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrFetch)
	assert.Equal(t, photos.StateFailed, rec.State())
	assert.Equal(t, photos.FailurePlaceholder(), rec.Payload())
	assert.Equal(t, task.OutcomeFailed, tk.Outcome())
	assert.EqualValues(t, 1, calls.Load(), "failure still reports completion")
}

func TestDecodeFailureMarksFailed(t *testing.T) {
	rec := newRecord(t)
	decoder := task.DecoderFunc(func([]byte) (image.Image, error) {
		return nil, errors.New("unknown format")
	})
	tk := task.NewFetch(rec, okFetcher([]byte("garbage")), decoder, nil)

	err := tk.Run(context.Background())
	assert.ErrorIs(t, err, services.ErrDecode)
	assert.Equal(t, photos.StateFailed, rec.State())
}

func TestRunAnnotatesContext(t *testing.T) {
	rec := newRecord(t)
	var key, stage, requestID string
	fetcher := task.FetcherFunc(func(ctx context.Context, _ *url.URL) ([]byte, error) {
		key, _ = services.ItemKeyFromContext(ctx)
		stage, _ = services.StageFromContext(ctx)
		requestID, _ = services.RequestIDFromContext(ctx)
		return []byte("png"), nil
	})
	tk := task.NewFetch(rec, fetcher, okDecoder(image.NewRGBA(image.Rect(0, 0, 1, 1))), nil)
	tk.SetItemKey("4")

	require.NoError(t, tk.Run(context.Background()))

	assert.Equal(t, "4", key)
	assert.Equal(t, string(task.KindFetch), stage)
	assert.Equal(t, tk.ID(), requestID)
}

func TestCancelBeforeRunSkipsWork(t *testing.T) {
	rec := newRecord(t)
	var fetched atomic.Bool
	fetcher := task.FetcherFunc(func(context.Context, *url.URL) ([]byte, error) {
		fetched.Store(true)
		return nil, nil
	})
	tk := task.NewFetch(rec, fetcher, okDecoder(nil), nil)
	var calls atomic.Int32
	tk.OnComplete(countCalls(&calls))

	tk.Cancel()
	tk.Cancel()
	err := tk.Run(context.Background())

	assert.ErrorIs(t, err, services.ErrCanceled)
	assert.True(t, tk.Cancelled())
	assert.False(t, fetched.Load())
	assert.Equal(t, photos.StateNew, rec.State())
	assert.Equal(t, task.OutcomeCanceled, tk.Outcome())
	assert.Zero(t, calls.Load())
}

func TestCancelDuringFetchLeavesRecordUntouched(t *testing.T) {
	rec := newRecord(t)
	started := make(chan struct{})
	fetcher := task.FetcherFunc(func(ctx context.Context, _ *url.URL) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	tk := task.NewFetch(rec, fetcher, okDecoder(nil), nil)
	var calls atomic.Int32
	tk.OnComplete(countCalls(&calls))

	done := make(chan error, 1)
	go func() { done <- tk.Run(context.Background()) }()
	<-started
	tk.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, services.ErrCanceled)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not observe cancellation")
	}
	assert.Equal(t, photos.StateNew, rec.State(), "cancelled fetch must not mark failed")
	assert.Zero(t, calls.Load())
}

func TestQueueShutdownDuringFetchIsTreatedAsCancel(t *testing.T) {
	rec := newRecord(t)
	fetcher := task.FetcherFunc(func(ctx context.Context, _ *url.URL) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	tk := task.NewFetch(rec, fetcher, okDecoder(nil), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tk.Run(ctx)
	assert.ErrorIs(t, err, services.ErrCanceled)
	assert.Equal(t, photos.StateNew, rec.State())
}

func TestTransformSuccessMarksFiltered(t *testing.T) {
	rec := newRecord(t)
	raw := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.True(t, rec.MarkDownloaded(raw))
	filtered := image.NewRGBA(image.Rect(0, 0, 2, 2))

	var got image.Image
	tk := task.NewTransform(rec, task.TransformerFunc(func(_ context.Context, img image.Image) (image.Image, error) {
		got = img
		return filtered, nil
	}), nil)
	var calls atomic.Int32
	tk.OnComplete(countCalls(&calls))

	require.NoError(t, tk.Run(context.Background()))
	assert.Same(t, raw, got)
	assert.Equal(t, photos.StateFiltered, rec.State())
	assert.Same(t, filtered, rec.Payload())
	assert.Equal(t, task.OutcomeFiltered, tk.Outcome())
	assert.EqualValues(t, 1, calls.Load())
}

func TestTransformFailureLeavesDownloaded(t *testing.T) {
	rec := newRecord(t)
	raw := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.True(t, rec.MarkDownloaded(raw))
	tk := task.NewTransform(rec, task.TransformerFunc(func(context.Context, image.Image) (image.Image, error) {
		return nil, errors.New("filter exploded")
	}), nil)
	var calls atomic.Int32
	tk.OnComplete(countCalls(&calls))

	err := tk.Run(context.Background())
	assert.ErrorIs(t, err, services.ErrTransform)
	assert.Equal(t, photos.StateDownloaded, rec.State())
	assert.Same(t, raw, rec.Payload())
	assert.Equal(t, task.OutcomeUnchanged, tk.Outcome())
	assert.EqualValues(t, 1, calls.Load())
}

func TestTransformSkipsRecordNotDownloaded(t *testing.T) {
	rec := newRecord(t)
	var invoked atomic.Bool
	tk := task.NewTransform(rec, task.TransformerFunc(func(_ context.Context, img image.Image) (image.Image, error) {
		invoked.Store(true)
		return img, nil
	}), nil)

	require.NoError(t, tk.Run(context.Background()))
	assert.False(t, invoked.Load())
	assert.Equal(t, photos.StateNew, rec.State())
	assert.Equal(t, task.OutcomeUnchanged, tk.Outcome())
}

func TestCancelDuringTransformDiscardsResult(t *testing.T) {
	rec := newRecord(t)
	require.True(t, rec.MarkDownloaded(image.NewRGBA(image.Rect(0, 0, 1, 1))))
	started := make(chan struct{})
	release := make(chan struct{})
	tk := task.NewTransform(rec, task.TransformerFunc(func(_ context.Context, img image.Image) (image.Image, error) {
		close(started)
		<-release
		return img, nil
	}), nil)
	var calls atomic.Int32
	tk.OnComplete(countCalls(&calls))

	done := make(chan error, 1)
	go func() { done <- tk.Run(context.Background()) }()
	<-started
	tk.Cancel()
	close(release)

	assert.ErrorIs(t, <-done, services.ErrCanceled)
	assert.Equal(t, photos.StateDownloaded, rec.State())
	assert.Zero(t, calls.Load())
}

func TestTaskIDsAreUnique(t *testing.T) {
	rec := newRecord(t)
	a := task.NewFetch(rec, okFetcher(nil), okDecoder(nil), nil)
	b := task.NewFetch(rec, okFetcher(nil), okDecoder(nil), nil)
	assert.NotEqual(t, a.ID(), b.ID())
	_, err := uuid.Parse(a.ID())
	assert.NoError(t, err)
	assert.Same(t, rec, a.Record())
	assert.Equal(t, "fetch(Photo)", a.String())
}

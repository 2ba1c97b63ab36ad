package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/pkg/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	inProcess   []string
	finished    map[string][]byte
	failed      map[string]string
	finishedErr error
	inProcErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		finished: make(map[string][]byte),
		failed:   make(map[string]string),
	}
}

func (s *fakeStore) SetInProcess(ctx context.Context, imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inProcErr != nil {
		return s.inProcErr
	}
	s.inProcess = append(s.inProcess, imageID)
	return nil
}

func (s *fakeStore) SetFinished(ctx context.Context, imageID string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finishedErr != nil {
		return s.finishedErr
	}
	s.finished[imageID] = result
	return nil
}

func (s *fakeStore) SetError(ctx context.Context, imageID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[imageID] = reason
	return nil
}

type fakeBlobs struct {
	data map[string][]byte
	err  error
}

func (b *fakeBlobs) Download(ctx context.Context, key string) ([]byte, string, error) {
	if b.err != nil {
		return nil, "", b.err
	}
	data, ok := b.data[key]
	if !ok {
		return nil, "", errors.New("no such key")
	}
	return data, "image/jpeg", nil
}

type fakeExtractor struct {
	receipt *domain.ExtractedReceipt
	err     error
	calls   int32
	mu      sync.Mutex
}

func (e *fakeExtractor) Extract(ctx context.Context, key string, image []byte) (*domain.ExtractedReceipt, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.receipt, nil
}

func testReceipt() *domain.ExtractedReceipt {
	return &domain.ExtractedReceipt{
		ReceiptNumber: "42",
		StoreName:     "Test Store",
		StoreAddress:  "unknown",
		DateTime:      "2025-05-05 12:00",
		TotalAmount:   9.99,
	}
}

func TestProcessFinishes(t *testing.T) {
	store := newFakeStore()
	blobs := &fakeBlobs{data: map[string][]byte{"u/i/receipt.jpg": []byte("bytes")}}
	extractor := &fakeExtractor{receipt: testReceipt()}

	p := NewProcessor(store, blobs, map[string]provider.Extractor{domain.WorkloadCloud: extractor}, 1, 4)
	p.Process(context.Background(), Job{ImageID: "img-1", S3Key: "u/i/receipt.jpg", Workload: domain.WorkloadCloud})

	assert.Equal(t, []string{"img-1"}, store.inProcess)
	require.Contains(t, store.finished, "img-1")
	assert.Empty(t, store.failed)

	var stored domain.ExtractedReceipt
	require.NoError(t, json.Unmarshal(store.finished["img-1"], &stored))
	assert.Equal(t, "Test Store", stored.StoreName)
}

func TestProcessExtractionFailure(t *testing.T) {
	store := newFakeStore()
	blobs := &fakeBlobs{data: map[string][]byte{"key": []byte("bytes")}}
	extractor := &fakeExtractor{err: errors.New("model unreachable")}

	p := NewProcessor(store, blobs, map[string]provider.Extractor{domain.WorkloadCloud: extractor}, 1, 4)
	p.Process(context.Background(), Job{ImageID: "img-2", S3Key: "key", Workload: domain.WorkloadCloud})

	assert.Empty(t, store.finished)
	require.Contains(t, store.failed, "img-2")
	assert.Contains(t, store.failed["img-2"], "model unreachable")
}

func TestProcessBlobFailure(t *testing.T) {
	store := newFakeStore()
	blobs := &fakeBlobs{err: errors.New("connection refused")}
	extractor := &fakeExtractor{receipt: testReceipt()}

	p := NewProcessor(store, blobs, map[string]provider.Extractor{domain.WorkloadCloud: extractor}, 1, 4)
	p.Process(context.Background(), Job{ImageID: "img-3", S3Key: "key", Workload: domain.WorkloadCloud})

	require.Contains(t, store.failed, "img-3")
	assert.Contains(t, store.failed["img-3"], "fetching image from storage")
	assert.Zero(t, extractor.calls)
}

func TestProcessUnknownWorkload(t *testing.T) {
	store := newFakeStore()
	blobs := &fakeBlobs{data: map[string][]byte{"key": []byte("bytes")}}

	p := NewProcessor(store, blobs, map[string]provider.Extractor{}, 1, 4)
	p.Process(context.Background(), Job{ImageID: "img-4", S3Key: "key", Workload: "gpu-cluster"})

	require.Contains(t, store.failed, "img-4")
	assert.Contains(t, store.failed["img-4"], "gpu-cluster")
}

func TestProcessCheckpointFailureLandsInError(t *testing.T) {
	store := newFakeStore()
	store.inProcErr = errors.New("db timeout")
	blobs := &fakeBlobs{data: map[string][]byte{"key": []byte("bytes")}}
	extractor := &fakeExtractor{receipt: testReceipt()}

	p := NewProcessor(store, blobs, map[string]provider.Extractor{domain.WorkloadCloud: extractor}, 1, 4)
	p.Process(context.Background(), Job{ImageID: "img-6", S3Key: "key", Workload: domain.WorkloadCloud})

	// The record never reached in_process, so the error write is the only
	// thing keeping it from being stranded queued forever.
	assert.Empty(t, store.finished)
	require.Contains(t, store.failed, "img-6")
	assert.Contains(t, store.failed["img-6"], "db timeout")
	assert.Zero(t, extractor.calls)
}

func TestProcessTerminalWriteFailureLeavesInProcess(t *testing.T) {
	store := newFakeStore()
	store.finishedErr = errors.New("db gone")
	blobs := &fakeBlobs{data: map[string][]byte{"key": []byte("bytes")}}
	extractor := &fakeExtractor{receipt: testReceipt()}

	p := NewProcessor(store, blobs, map[string]provider.Extractor{domain.WorkloadCloud: extractor}, 1, 4)
	p.Process(context.Background(), Job{ImageID: "img-5", S3Key: "key", Workload: domain.WorkloadCloud})

	// No error state either: the record stays in_process for the startup
	// sweep to requeue.
	assert.Empty(t, store.finished)
	assert.Empty(t, store.failed)
	assert.Equal(t, []string{"img-5"}, store.inProcess)
}

func TestWorkerPoolDrainsQueue(t *testing.T) {
	store := newFakeStore()
	blobs := &fakeBlobs{data: make(map[string][]byte)}
	extractor := &fakeExtractor{receipt: testReceipt()}

	const jobs = 20
	for i := 0; i < jobs; i++ {
		blobs.data[fmt.Sprintf("key-%d", i)] = []byte("bytes")
	}

	p := NewProcessor(store, blobs, map[string]provider.Extractor{domain.WorkloadCloud: extractor}, 3, 8)
	p.Start()
	for i := 0; i < jobs; i++ {
		p.Submit(Job{
			ImageID:  fmt.Sprintf("img-%d", i),
			S3Key:    fmt.Sprintf("key-%d", i),
			Workload: domain.WorkloadCloud,
		})
	}
	p.Shutdown()

	assert.Len(t, store.finished, jobs)
	assert.Empty(t, store.failed)
	assert.EqualValues(t, jobs, extractor.calls)
}

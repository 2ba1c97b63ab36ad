package process

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/Lokhmat/ocr-backend/pkg/provider"
)

type (
	// Job identifies one submitted image waiting for extraction. Dispatch is
	// at-most-once per image: only the upload path enqueues, once, right
	// after the record insert.
	Job struct {
		ImageID  string
		S3Key    string
		Workload string
	}

	// StatusStore is the slice of the image repository the pipeline needs:
	// the three status transitions it owns.
	StatusStore interface {
		SetInProcess(ctx context.Context, imageID string) error
		SetFinished(ctx context.Context, imageID string, result []byte) error
		SetError(ctx context.Context, imageID string, reason string) error
	}

	// BlobStore fetches the uploaded image bytes.
	BlobStore interface {
		Download(ctx context.Context, key string) ([]byte, string, error)
	}

	// Processor drives submitted images from queued to a terminal state.
	// A fixed pool of workers drains the job channel, bounding how many
	// blobs are held in memory at once regardless of upload fan-out.
	Processor struct {
		store      StatusStore
		blobs      BlobStore
		extractors map[string]provider.Extractor

		jobs    chan Job
		workers int
		wg      sync.WaitGroup
	}
)

func NewProcessor(store StatusStore, blobs BlobStore, extractors map[string]provider.Extractor, workers, queueSize int) *Processor {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Processor{
		store:      store,
		blobs:      blobs,
		extractors: extractors,
		jobs:       make(chan Job, queueSize),
		workers:    workers,
	}
}

// Start launches the worker pool. Workers exit when the queue is closed via
// Shutdown.
func (p *Processor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.Process(context.Background(), job)
			}
		}()
	}
}

// Submit enqueues a job for background extraction. The upload response does
// not wait for extraction; backpressure only applies once the queue buffer
// is full.
func (p *Processor) Submit(job Job) {
	p.jobs <- job
}

// Shutdown stops accepting jobs and waits for in-flight extractions.
func (p *Processor) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
}

// Process runs the state machine for one image: in_process checkpoint,
// blob fetch, provider call, terminal write. Exactly one attempt; every
// failure before the terminal write lands in the error state with a reason.
func (p *Processor) Process(ctx context.Context, job Job) {
	if err := p.store.SetInProcess(ctx, job.ImageID); err != nil {
		// A record stuck queued is invisible to the startup sweep, so the
		// checkpoint failure goes down the same terminal error path.
		p.fail(ctx, job.ImageID, "marking image in_process: "+err.Error())
		return
	}

	image, _, err := p.blobs.Download(ctx, job.S3Key)
	if err != nil {
		p.fail(ctx, job.ImageID, "fetching image from storage: "+err.Error())
		return
	}

	extractor, ok := p.extractors[job.Workload]
	if !ok {
		// Workloads are validated at submission; reaching this means a
		// record was written with a workload no provider is wired for.
		p.fail(ctx, job.ImageID, "no provider configured for workload "+job.Workload)
		return
	}

	receipt, err := extractor.Extract(ctx, job.S3Key, image)
	image = nil
	if err != nil {
		p.fail(ctx, job.ImageID, err.Error())
		return
	}

	result, err := json.Marshal(receipt)
	if err != nil {
		p.fail(ctx, job.ImageID, "encoding extraction result: "+err.Error())
		return
	}

	if err := p.store.SetFinished(ctx, job.ImageID, result); err != nil {
		// The terminal write is the single source of truth. If it fails the
		// record stays in_process until the startup sweep requeues it.
		log.Printf("image %s: terminal status write failed, record left in_process: %v", job.ImageID, err)
	}
}

func (p *Processor) fail(ctx context.Context, imageID, reason string) {
	if err := p.store.SetError(ctx, imageID, reason); err != nil {
		log.Printf("image %s: failed to persist error state (%s): %v", imageID, reason, err)
	}
}

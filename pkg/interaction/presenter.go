package interaction

import (
	"image"
	"sync"
	"sync/atomic"

	"sliceviewer/internal/logging"
)

// FrameSink displays composited frames. Present is never called
// concurrently by one Presenter, and frames must not be modified.
type FrameSink interface {
	Present(frame *image.NRGBA) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(frame *image.NRGBA) error

// Present calls f(frame).
func (f FrameSinkFunc) Present(frame *image.NRGBA) error { return f(frame) }

// PresenterOptions configures a Presenter.
type PresenterOptions struct {
	// Overlay enables drawing of transient graphics.
	Overlay bool

	// Async renders on a background goroutine instead of the caller's.
	Async bool
}

// PresenterStats counts presenter work.
type PresenterStats struct {
	BaseRenders int64 // render jobs executed
	Frames      int64 // frames handed to the sink
	Coalesced   int64 // requests folded into the pending slot while busy
	Errors      int64 // sink failures
}

type request struct {
	job     RenderJob
	overlay OverlayState
}

// Presenter composites and presents frames. At most one render runs at a
// time; requests arriving meanwhile collapse into a single pending request
// that keeps the newest render job and the newest overlay.
type Presenter struct {
	sink FrameSink
	opts PresenterOptions

	mu      sync.Mutex
	busy    bool
	pending *request
	wg      sync.WaitGroup

	// base is only touched by the goroutine holding busy.
	base *image.NRGBA

	baseRenders atomic.Int64
	frames      atomic.Int64
	coalesced   atomic.Int64
	errors      atomic.Int64
}

// NewPresenter returns a Presenter writing to sink.
func NewPresenter(sink FrameSink, opts PresenterOptions) *Presenter {
	return &Presenter{sink: sink, opts: opts}
}

// Submit requests a frame. A nil job reuses the last base frame, so only
// the overlay is redrawn.
func (p *Presenter) Submit(job RenderJob, ov OverlayState) {
	req := request{job: job, overlay: ov}

	p.mu.Lock()
	if p.busy {
		if p.pending == nil {
			p.pending = &req
		} else {
			if job != nil {
				p.pending.job = job
			}
			p.pending.overlay = ov
		}
		p.coalesced.Add(1)
		p.mu.Unlock()
		return
	}
	p.busy = true
	p.wg.Add(1)
	p.mu.Unlock()

	if p.opts.Async {
		go p.run(req)
	} else {
		p.run(req)
	}
}

func (p *Presenter) run(req request) {
	defer p.wg.Done()
	for {
		p.present(req)

		p.mu.Lock()
		if p.pending == nil {
			p.busy = false
			p.mu.Unlock()
			return
		}
		req = *p.pending
		p.pending = nil
		p.mu.Unlock()
	}
}

func (p *Presenter) present(req request) {
	if req.job != nil {
		p.base = req.job()
		p.baseRenders.Add(1)
	}
	if p.base == nil {
		return
	}

	var frame *image.NRGBA
	if p.opts.Overlay {
		frame = DrawOverlay(p.base, req.overlay)
	} else {
		frame = cloneNRGBA(p.base)
	}
	frame = Zoom(frame, req.overlay.Zoom)

	if err := p.sink.Present(frame); err != nil {
		p.errors.Add(1)
		logging.Logger().Warn("present frame failed", "err", err)
		return
	}
	p.frames.Add(1)
}

// Wait blocks until no render is running or pending.
func (p *Presenter) Wait() {
	p.wg.Wait()
}

// Stats returns the presenter counters.
func (p *Presenter) Stats() PresenterStats {
	return PresenterStats{
		BaseRenders: p.baseRenders.Load(),
		Frames:      p.frames.Load(),
		Coalesced:   p.coalesced.Load(),
		Errors:      p.errors.Load(),
	}
}

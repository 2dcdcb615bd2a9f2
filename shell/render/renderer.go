// Package render is the retained-mode renderer collaborator: it owns
// display lists per document, builds hit-test scenes on a background
// goroutine, generates frames and accounts GPU resources by epoch.
// The shell decides when to rebuild or re-render; this package does
// the bookkeeping and the drawing through a gfx.Backend.
package render

import (
	"sync"

	"github.com/mawren/thicket/shell/gfx"
	"github.com/mawren/thicket/shell/layout"
)

// Notifier receives frame-ready callbacks from the renderer.
type Notifier interface {
	NewFrameReady(doc DocumentID, compositeNeeded bool)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NewFrameReady(DocumentID, bool) {}

// Transaction carries updates for one document: a new view size, a
// rebuilt display list, scroll offsets. Fields are optional.
type Transaction struct {
	ViewSize *layout.Size
	List     *DisplayList
	Scroll   map[layout.NodeID]layout.Point
}

type document struct {
	mu   sync.Mutex
	cond *sync.Cond

	view      layout.Size
	list      *DisplayList
	scroll    map[layout.NodeID]layout.Point
	submitGen uint64 // bumped per display-list submission
	sceneGen  uint64 // generation of the last built scene
	scene     *HitTester
	closed    bool

	epoch         Epoch // last submitted epoch
	renderedEpoch Epoch // last epoch actually drawn
	epochTextures map[Epoch][]uint32
}

type sceneJob struct {
	doc   *document
	items []DisplayItem // copied at submit; the live list may be retired early
	gen   uint64
}

// Renderer binds documents to a GPU backend.
type Renderer struct {
	backend  gfx.Backend
	notifier Notifier

	mu      sync.Mutex
	docs    map[DocumentID]*document
	nextDoc DocumentID

	jobs     chan sceneJob
	builderD sync.WaitGroup
	deinited bool
}

// New creates a renderer bound to a backend and a notifier and starts
// the scene-builder goroutine.
func New(backend gfx.Backend, notifier Notifier) *Renderer {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	r := &Renderer{
		backend:  backend,
		notifier: notifier,
		docs:     make(map[DocumentID]*document),
		jobs:     make(chan sceneJob, 16),
	}
	r.builderD.Add(1)
	go r.buildScenes()
	return r
}

func (r *Renderer) buildScenes() {
	defer r.builderD.Done()
	for job := range r.jobs {
		tester := &HitTester{gen: job.gen, items: make([]hitItem, 0, len(job.items))}
		for _, it := range job.items {
			tester.items = append(tester.items, hitItem{
				node:       it.Node,
				rect:       it.Rect,
				cursor:     it.Cursor,
				scrollable: it.Scrollable,
			})
		}
		d := job.doc
		d.mu.Lock()
		if job.gen > d.sceneGen {
			d.sceneGen = job.gen
			d.scene = tester
		}
		d.cond.Broadcast()
		d.mu.Unlock()
	}
}

// AddDocument registers a new logical document at the given view size.
func (r *Renderer) AddDocument(view layout.Size) DocumentID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextDoc++
	id := r.nextDoc
	d := &document{
		view:          view,
		scroll:        make(map[layout.NodeID]layout.Point),
		scene:         &HitTester{},
		epochTextures: make(map[Epoch][]uint32),
	}
	d.cond = sync.NewCond(&d.mu)
	r.docs[id] = d
	return id
}

func (r *Renderer) doc(id DocumentID) *document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id]
}

// SendTransaction applies a transaction. A display-list submission
// retires the previous list, stamps the next epoch and queues a scene
// build; the hit-tester generation advances with it.
func (r *Renderer) SendTransaction(id DocumentID, txn *Transaction) {
	d := r.doc(id)
	if d == nil || txn == nil {
		return
	}
	d.mu.Lock()
	if txn.ViewSize != nil {
		d.view = *txn.ViewSize
	}
	for node, off := range txn.Scroll {
		d.scroll[node] = off
	}
	var job *sceneJob
	if txn.List != nil {
		d.list.release()
		d.epoch++
		txn.List.Epoch = d.epoch
		d.list = txn.List
		d.submitGen++
		items := append([]DisplayItem(nil), txn.List.Items.View()...)
		job = &sceneJob{doc: d, items: items, gen: d.submitGen}
	}
	d.mu.Unlock()
	if job != nil {
		r.jobs <- *job
	}
}

// RequestHitTester returns a resolve handle for the document's current
// display-list generation. An unknown document yields a handle that
// resolves to an empty tester.
func (r *Renderer) RequestHitTester(id DocumentID) *HitTesterRequest {
	d := r.doc(id)
	if d == nil {
		return &HitTesterRequest{}
	}
	d.mu.Lock()
	gen := d.submitGen
	d.mu.Unlock()
	return &HitTesterRequest{doc: d, targetGen: gen}
}

// FlushSceneBuilder blocks until every pending scene build has
// completed. Must be called before any operation that reads geometry.
func (r *Renderer) FlushSceneBuilder() {
	r.mu.Lock()
	docs := make([]*document, 0, len(r.docs))
	for _, d := range r.docs {
		docs = append(docs, d)
	}
	r.mu.Unlock()
	for _, d := range docs {
		d.mu.Lock()
		for d.sceneGen < d.submitGen && !d.closed {
			d.cond.Wait()
		}
		d.mu.Unlock()
	}
}

// GenerateFrame asks for a new frame of the document's current scene.
// compositeNeeded distinguishes a full rebuild from a scroll/GPU-only
// update.
func (r *Renderer) GenerateFrame(id DocumentID, compositeNeeded bool) {
	if d := r.doc(id); d != nil {
		r.notifier.NewFrameReady(id, compositeNeeded)
	}
}

// Render draws the document's retained list at the given framebuffer
// size. The caller owns context currency: the backend must have been
// made current before and is released after, on all paths.
func (r *Renderer) Render(id DocumentID, fbW, fbH int, scale float32) error {
	d := r.doc(id)
	if d == nil {
		return nil
	}
	d.mu.Lock()
	list := d.list
	scroll := make(map[layout.NodeID]layout.Point, len(d.scroll))
	for k, v := range d.scroll {
		scroll[k] = v
	}
	d.mu.Unlock()

	if err := r.backend.BeginFrame(fbW, fbH); err != nil {
		return err
	}
	if list != nil {
		for _, it := range list.Items.View() {
			if it.Color[3] <= 0 {
				continue
			}
			off := scroll[it.Node]
			c := it.Color
			c[3] *= it.Opacity
			r.backend.FillRect(
				(it.Rect.Origin.X+off.X)*scale,
				(it.Rect.Origin.Y+off.Y)*scale,
				it.Rect.Size.W*scale,
				it.Rect.Size.H*scale,
				c,
			)
		}
		d.mu.Lock()
		d.renderedEpoch = list.Epoch
		d.mu.Unlock()
	}
	return r.backend.EndFrame()
}

// AddEpochTexture tags an external texture with the document's current
// epoch for later reclamation.
func (r *Renderer) AddEpochTexture(id DocumentID, tex uint32) {
	d := r.doc(id)
	if d == nil {
		return
	}
	d.mu.Lock()
	d.epochTextures[d.epoch] = append(d.epochTextures[d.epoch], tex)
	d.mu.Unlock()
}

// PipelineInfo reports, per document, the newest epoch whose frame has
// been composited.
type PipelineInfo struct {
	Epochs map[DocumentID]Epoch
}

// FlushPipeline reclaims textures tagged with epochs older than the
// last rendered one and reports the completed epochs.
func (r *Renderer) FlushPipeline() PipelineInfo {
	info := PipelineInfo{Epochs: make(map[DocumentID]Epoch)}
	r.mu.Lock()
	docs := make(map[DocumentID]*document, len(r.docs))
	for id, d := range r.docs {
		docs[id] = d
	}
	r.mu.Unlock()

	for id, d := range docs {
		d.mu.Lock()
		done := d.renderedEpoch
		if done > 0 {
			info.Epochs[id] = done
			var stale []uint32
			for e, texs := range d.epochTextures {
				if e < done {
					stale = append(stale, texs...)
					delete(d.epochTextures, e)
				}
			}
			if len(stale) > 0 {
				r.backend.FreeTextures(stale)
			}
		}
		d.mu.Unlock()
	}
	return info
}

// LiveEpochTextures reports how many textures are still tagged for the
// document. Used by reclamation tests.
func (r *Renderer) LiveEpochTextures(id DocumentID) int {
	d := r.doc(id)
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, texs := range d.epochTextures {
		n += len(texs)
	}
	return n
}

// Deinit stops the scene builder and releases retained lists. Must be
// called before the GPU context is deleted. Idempotent.
func (r *Renderer) Deinit() {
	r.mu.Lock()
	if r.deinited {
		r.mu.Unlock()
		return
	}
	r.deinited = true
	close(r.jobs)
	docs := r.docs
	r.docs = make(map[DocumentID]*document)
	r.mu.Unlock()

	r.builderD.Wait()
	for _, d := range docs {
		d.mu.Lock()
		d.closed = true
		d.list.release()
		d.list = nil
		d.cond.Broadcast()
		d.mu.Unlock()
	}
}

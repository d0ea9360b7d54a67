// Package bridge hands the current scene and a natural-language instruction
// to an external text generator and applies the rewritten scene it returns,
// but only if that answer survives decoding and validation.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/core/scene"
	"github.com/scraper-sky/2d-scene-editor/internal/core/scene/codec"
)

// Scene is the part of scene.Store the bridge needs.
type Scene interface {
	List() []scene.Entity
	ReplaceAll(records []scene.Entity) error
}

type Status uint8

const (
	EditApplied Status = iota + 1
	EditRejected
)

func (s Status) String() string {
	switch s {
	case EditApplied:
		return "applied"
	case EditRejected:
		return "rejected"
	default:
		return "none"
	}
}

// Outcome describes what a Submit did to the scene. Transport failures and
// busy rejections never reach the decode step and carry a zero Outcome.
type Outcome struct {
	Status Status
	// Count is the number of entities installed by an applied edit.
	Count int
	// DiscardedLocalEdits is set when the scene changed locally while the
	// request was pending; those changes were overwritten by the edit.
	DiscardedLocalEdits bool
}

// Bridge runs at most one edit at a time against a scene.
type Bridge struct {
	scene     Scene
	transport Transport
	slot      *semaphore.Weighted
	pending   atomic.Bool
	logger    log.Log
}

type Option func(*Bridge)

func WithLogger(l log.Log) Option {
	return func(b *Bridge) { b.logger = l }
}

func New(sc Scene, transport Transport, opts ...Option) *Bridge {
	b := &Bridge{
		scene:     sc,
		transport: transport,
		slot:      semaphore.NewWeighted(1),
		logger:    log.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(log.String("component", "edit_bridge"))
	return b
}

// Pending reports whether a Submit is in flight.
func (b *Bridge) Pending() bool {
	return b.pending.Load()
}

// Submit sends the current scene with instruction and applies the answer.
//
// Errors: ErrBridgeBusy when another Submit is in flight (nothing is sent);
// *TransportError when no usable response arrived; an error matching both
// ErrEditRejected and codec.ErrDecode or scene.ErrValidation when the answer
// was refused. In every failure case the scene is left as it was. Local
// edits made while the request is pending are overwritten by a successful
// edit.
func (b *Bridge) Submit(ctx context.Context, instruction string) (Outcome, error) {
	if !b.slot.TryAcquire(1) {
		b.logger.Warn("Edit refused, another request is pending")
		return Outcome{}, ErrBridgeBusy
	}
	b.pending.Store(true)
	defer func() {
		b.pending.Store(false)
		b.slot.Release(1)
	}()

	current := b.scene.List()
	doc, err := codec.Marshal(current)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode scene: %w", err)
	}
	req, err := BuildRequest(doc, instruction)
	if err != nil {
		return Outcome{}, err
	}
	before, err := codec.Fingerprint(current)
	if err != nil {
		return Outcome{}, err
	}

	logger := b.logger.With(log.Int("entities", len(current)))
	logger.Info("Submitting edit", log.String("instruction", req.Instruction))

	start := time.Now()
	resp, err := b.transport.PushEdit(ctx, req)
	if err == nil && ctx.Err() != nil {
		// A response that arrives after cancellation is dropped.
		err = ctx.Err()
	}
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Err: err}
		}
		logger.Error("Edit transport failed", log.Error(err), log.Duration("elapsed", time.Since(start)))
		return Outcome{}, err
	}

	records, err := codec.Decode([]byte(StripFences(resp.UpdatedJSON)))
	if err != nil {
		logger.Warn("Edit rejected, response is not a scene document", log.Error(err))
		return Outcome{Status: EditRejected}, rejected(err)
	}

	discarded := false
	if after, ferr := codec.Fingerprint(b.scene.List()); ferr == nil && after != before {
		discarded = true
	}

	if err = b.scene.ReplaceAll(records); err != nil {
		logger.Warn("Edit rejected, response failed validation", log.Error(err))
		return Outcome{Status: EditRejected}, rejected(err)
	}

	if discarded {
		logger.Warn("Local edits made while the request was pending were overwritten")
	}
	logger.Info("Edit applied",
		log.Int("count", len(records)),
		log.Duration("elapsed", time.Since(start)))
	return Outcome{Status: EditApplied, Count: len(records), DiscardedLocalEdits: discarded}, nil
}

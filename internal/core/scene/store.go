package scene

import (
	"fmt"
	"math"
	"sync"

	"github.com/scraper-sky/2d-scene-editor/internal/core/events"
	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
)

// Store is the single source of truth for a scene's entities. Every method
// either commits its whole change or leaves the store as it was. Reads hand
// out deep copies, so callers can never reach the stored records.
type Store struct {
	mu      sync.RWMutex
	records map[string]Entity
	order   []string // ids in store order; same set as the records keys
	ids     *IDGenerator

	events events.Publisher
	logger log.Log
}

type Option func(*Store)

// WithEvents publishes a notification after every committed mutation.
func WithEvents(p events.Publisher) Option {
	return func(s *Store) { s.events = p }
}

func WithLogger(l log.Log) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]Entity),
		ids:     NewIDGenerator(),
		logger:  log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.String("component", "scene_store"))
	return s
}

// Create validates e and inserts it. An empty id is allocated from the
// entity's base key. The stored id is returned.
func (s *Store) Create(e Entity) (string, error) {
	if err := e.validateBody(); err != nil {
		return "", err
	}

	s.mu.Lock()
	if e.ID == "" {
		e.ID = s.ids.Next(e.BaseKey(), s.hasLocked)
	} else if s.hasLocked(e.ID) {
		s.mu.Unlock()
		return "", invalid(e.ID, "id", "already exists")
	}
	stored := e.Clone()
	s.records[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	s.mu.Unlock()

	s.logger.Debug("Entity created", log.String("id", stored.ID), log.String("type", string(stored.Type)))
	s.publish(events.KindEntityCreated, stored.Clone())
	return stored.ID, nil
}

// CreateSprite adds an asset-backed sprite at position with no rotation and
// unit scale.
func (s *Store) CreateSprite(key string, position Vec3) (string, error) {
	return s.Create(NewSprite("", key, Identity(position)))
}

// CreatePrimitive adds a primitive with an allocated id.
func (s *Store) CreatePrimitive(p Primitive, t Transform) (string, error) {
	return s.Create(Entity{Type: TypePrimitive, Transform: t, Primitive: &p})
}

// Update merges p into the record. The merged record must still be valid.
func (s *Store) Update(id string, p Patch) error {
	s.mu.Lock()
	current, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return notFound(id)
	}
	if p.empty() {
		s.mu.Unlock()
		return nil
	}
	merged, err := p.apply(current)
	if err == nil {
		err = merged.Validate()
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.records[id] = merged
	s.mu.Unlock()

	s.publish(events.KindEntityUpdated, merged.Clone())
	return nil
}

// MoveTo sets the planar position and keeps the depth component.
func (s *Store) MoveTo(id string, x, y float64) error {
	current, err := s.Get(id)
	if err != nil {
		return err
	}
	pos := Vec3{x, y, current.Position[2]}
	return s.Update(id, Patch{Position: &pos})
}

// ScaleBy multiplies every scale component by factor.
func (s *Store) ScaleBy(id string, factor float64) error {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return invalid(id, "scale", fmt.Sprintf("factor %v must be a positive number", factor))
	}
	current, err := s.Get(id)
	if err != nil {
		return err
	}
	scale := current.Scale
	for i := range scale {
		scale[i] *= factor
	}
	return s.Update(id, Patch{Scale: &scale})
}

// Remove deletes the record.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	removed, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return notFound(id)
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Debug("Entity removed", log.String("id", id))
	s.publish(events.KindEntityRemoved, removed)
	return nil
}

// ReplaceAll swaps the whole entity set for records. The batch is validated
// in full first: any invalid record or repeated id fails the call and the
// current set stays in place.
func (s *Store) ReplaceAll(records []Entity) error {
	next := make(map[string]Entity, len(records))
	order := make([]string, 0, len(records))
	for i, e := range records {
		if err := e.Validate(); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Index = i
			}
			return err
		}
		if _, dup := next[e.ID]; dup {
			return &ValidationError{Index: i, ID: e.ID, Field: "id", Reason: "duplicate id in batch"}
		}
		next[e.ID] = e.Clone()
		order = append(order, e.ID)
	}

	s.mu.Lock()
	previous := len(s.order)
	s.records = next
	s.order = order
	snapshot := s.listLocked()
	s.mu.Unlock()

	s.logger.Info("Scene replaced", log.Int("previous", previous), log.Int("current", len(order)))
	s.publish(events.KindSceneReplaced, snapshot)
	return nil
}

// Get returns a copy of the record.
func (s *Store) Get(id string) (Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[id]
	if !ok {
		return Entity{}, notFound(id)
	}
	return e.Clone(), nil
}

func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasLocked(id)
}

// List returns a copy of every record in store order.
func (s *Store) List() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) hasLocked(id string) bool {
	_, ok := s.records[id]
	return ok
}

func (s *Store) listLocked() []Entity {
	out := make([]Entity, len(s.order))
	for i, id := range s.order {
		out[i] = s.records[id].Clone()
	}
	return out
}

// publish runs outside the lock so handlers may read the store.
func (s *Store) publish(kind events.Kind, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(events.NewEvent(kind, "scene_store", data)); err != nil {
		s.logger.Warn("Change handler failed", log.String("kind", string(kind)), log.Error(err))
	}
}

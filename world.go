// Package kinematic is a world of static and kinematic colliders that characters move
// through with the kcc resolver.
//
// The World registers bodies, answers shape casts through a uniform spatial grid, and
// advances every character in parallel on Step. Ground transitions are reported as events
// once all characters have moved.
package kinematic

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/controller"
	"github.com/akmonengine/kinematic/kcc"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

const (
	DefaultCellSize  = 2.0
	DefaultCellCount = 4096
)

// Collision layers of the bodies created by the world
const (
	LayerStatic uint32 = 1 << iota
	LayerCharacter
)

var (
	ErrInvalidBody     = errors.New("kinematic: invalid body")
	ErrDuplicateBody   = errors.New("kinematic: duplicate body id")
	ErrUnknownBody     = errors.New("kinematic: unknown body")
	ErrInvalidDuration = errors.New("kinematic: invalid time step")
)

type World struct {
	SpatialGrid *SpatialGrid
	Workers     int
	Logger      *slog.Logger

	Events Events

	// mu guards the registry and the grid: read locked by casts, write locked by mutations
	mu     sync.RWMutex
	bodies *orderedmap.OrderedMap[actor.BodyID, *actor.Body]
	// indexed are the bodies stored in the grid, by grid index
	indexed []*actor.Body
	// unbounded are planes and bodies too large for the grid, tested by every cast
	unbounded []*actor.Body
	nextID    actor.BodyID

	// stepMu serializes Step with the character registry and tuning changes
	stepMu         sync.Mutex
	characters     *orderedmap.OrderedMap[actor.BodyID, *Character]
	characterOrder []*Character
	ticks          uint64
}

// NewWorld creates an empty world whose grid has cellCount slots of cellSize cubes.
func NewWorld(cellSize float64, cellCount int) *World {
	return &World{
		SpatialGrid: NewSpatialGrid(cellSize, cellCount),
		Workers:     DEFAULT_WORKERS,
		Logger:      slog.Default(),
		Events:      NewEvents(),
		bodies:      orderedmap.NewOrderedMap[actor.BodyID, *actor.Body](),
		characters:  orderedmap.NewOrderedMap[actor.BodyID, *Character](),
	}
}

func (w *World) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

// NextBodyID reserves a fresh body id. It is safe for concurrent use.
func (w *World) NextBodyID() actor.BodyID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.allocateID()
}

func (w *World) allocateID() actor.BodyID {
	w.nextID++
	for {
		if _, taken := w.bodies.Get(w.nextID); !taken && w.nextID != actor.NoBody {
			return w.nextID
		}
		w.nextID++
	}
}

// AddBody registers a body. Its id must be set and unused.
func (w *World) AddBody(body *actor.Body) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.insertLocked(body); err != nil {
		return err
	}
	w.rebuildLocked()
	return nil
}

// AddBodies registers several bodies at once, stopping at the first invalid one.
func (w *World) AddBodies(bodies ...*actor.Body) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer w.rebuildLocked()

	for _, body := range bodies {
		if err := w.insertLocked(body); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) insertLocked(body *actor.Body) error {
	if body == nil || body.Shape == nil {
		return fmt.Errorf("%w: missing shape", ErrInvalidBody)
	}
	if body.ID == actor.NoBody {
		return fmt.Errorf("%w: zero id", ErrInvalidBody)
	}
	if _, exists := w.bodies.Get(body.ID); exists {
		return fmt.Errorf("%w: %d", ErrDuplicateBody, body.ID)
	}

	w.bodies.Set(body.ID, body)
	w.nextID = max(w.nextID, body.ID)
	w.logger().Debug("body added", "id", body.ID, "type", body.BodyType, "sensor", body.IsSensor)
	return nil
}

// RemoveBody unregisters a body. Removing a character body also removes the character.
func (w *World) RemoveBody(id actor.BodyID) error {
	w.stepMu.Lock()
	defer w.stepMu.Unlock()

	if err := w.removeBody(id); err != nil {
		return err
	}
	if w.characters.Delete(id) {
		w.refreshCharacterOrder()
		w.Events.forget(id)
	}
	return nil
}

func (w *World) removeBody(id actor.BodyID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.bodies.Delete(id) {
		return fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	w.rebuildLocked()
	w.logger().Debug("body removed", "id", id)
	return nil
}

// Body returns the registered body with the given id
func (w *World) Body(id actor.BodyID) (*actor.Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bodies.Get(id)
}

// BodyCount returns the number of registered bodies
func (w *World) BodyCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bodies.Len()
}

// MoveBody teleports a registered body.
func (w *World) MoveBody(id actor.BodyID, transform actor.Transform) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	body, ok := w.bodies.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	body.SetTransform(transform)
	w.rebuildLocked()
	return nil
}

// rebuildLocked refills the grid from the registry, in registration order
func (w *World) rebuildLocked() {
	w.SpatialGrid.Clear()
	w.indexed = w.indexed[:0]
	w.unbounded = w.unbounded[:0]

	for el := w.bodies.Front(); el != nil; el = el.Next() {
		body := el.Value
		if body.IsPlane() {
			w.unbounded = append(w.unbounded, body)
			continue
		}

		index := len(w.indexed)
		if !w.SpatialGrid.Insert(index, body.GetAABB()) {
			w.unbounded = append(w.unbounded, body)
			continue
		}
		w.indexed = append(w.indexed, body)
	}

	w.SpatialGrid.SortCells()
}

// AddCharacter registers a kinematic capsule driven by ctrl, standing airborne at position.
// Characters never block each other's movement: their default filter ignores LayerCharacter.
func (w *World) AddCharacter(position mgl64.Vec3, ctrl *controller.Controller) (*Character, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("%w: missing controller", ErrInvalidBody)
	}

	w.stepMu.Lock()
	defer w.stepMu.Unlock()

	state := controller.NewCharacter(position)

	w.mu.Lock()
	body := actor.NewBody(w.allocateID(), actor.NewTransformAt(position, state.Rotation), ctrl.Shape(), actor.BodyTypeKinematic)
	body.Layers = LayerCharacter
	err := w.insertLocked(body)
	if err == nil {
		w.rebuildLocked()
	}
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	character := &Character{
		Body:       body,
		Controller: ctrl,
		State:      state,
		Filter:     kcc.DefaultQueryFilter().WithExcluded(body.ID).WithMask(actor.AllLayers &^ LayerCharacter),
	}
	w.characters.Set(body.ID, character)
	w.refreshCharacterOrder()

	return character, nil
}

// Character returns the character owning the body id
func (w *World) Character(id actor.BodyID) (*Character, bool) {
	w.stepMu.Lock()
	defer w.stepMu.Unlock()
	return w.characters.Get(id)
}

// Characters returns the registered characters in registration order
func (w *World) Characters() []*Character {
	w.stepMu.Lock()
	defer w.stepMu.Unlock()
	return slices.Clone(w.characterOrder)
}

func (w *World) refreshCharacterOrder() {
	w.characterOrder = w.characterOrder[:0]
	for el := w.characters.Front(); el != nil; el = el.Next() {
		w.characterOrder = append(w.characterOrder, el.Value)
	}
}

// Configure validates config and applies it to every character controller.
// Colliders are resized when the character dimensions change.
func (w *World) Configure(config controller.Config) error {
	if err := config.Validate(); err != nil {
		w.logger().Warn("configuration rejected", "error", err)
		return err
	}

	w.stepMu.Lock()
	defer w.stepMu.Unlock()

	configured := make(map[*controller.Controller]bool)
	for _, character := range w.characterOrder {
		if !configured[character.Controller] {
			character.Controller.SetConfig(config)
			configured[character.Controller] = true
		}
	}

	w.mu.Lock()
	for _, character := range w.characterOrder {
		character.Body.Shape = character.Controller.Shape()
		character.Body.SetTransform(character.Body.Transform)
	}
	w.rebuildLocked()
	w.mu.Unlock()

	w.logger().Info("configuration applied", "characters", len(w.characterOrder))
	return nil
}

// Ticks returns the number of completed steps
func (w *World) Ticks() uint64 {
	w.stepMu.Lock()
	defer w.stepMu.Unlock()
	return w.ticks
}

// Step advances every character by dt.
//
// Characters are ticked in parallel by Workers goroutines, each against the world as it was
// at the start of the step. Their bodies are then moved, and the ground events of the step
// are delivered in registration order.
func (w *World) Step(dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, dt)
	}

	w.stepMu.Lock()
	defer w.stepMu.Unlock()

	w.Workers = max(DEFAULT_WORKERS, w.Workers)

	task(w.Workers, w.characterOrder, func(character *Character) {
		character.LastReport = character.Controller.Tick(w, &character.State, character.Input, character.Filter, dt)
	})

	w.syncCharacters()

	for _, character := range w.characterOrder {
		w.Events.recordTick(character.Body.ID, character.State.Ground, character.LastReport)
	}
	w.Events.flush()

	w.ticks++
	return nil
}

// syncCharacters moves the character bodies to the resolved positions
func (w *World) syncCharacters() {
	if len(w.characterOrder) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, character := range w.characterOrder {
		character.Body.SetTransform(actor.NewTransformAt(character.State.Position, character.State.Rotation))
	}
	w.rebuildLocked()
}

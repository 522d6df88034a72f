package kinematic

import (
	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/controller"
	"github.com/akmonengine/kinematic/kcc"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	LANDED EventType = iota
	LEFT_GROUND
	GROUND_CHANGED
	STEPPED_UP
	JUMPED
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// LandedEvent is sent when an airborne character finds walkable ground
type LandedEvent struct {
	Character actor.BodyID
	Ground    actor.BodyID
	Normal    mgl64.Vec3
}

func (e LandedEvent) Type() EventType { return LANDED }

// LeftGroundEvent is sent when a grounded character becomes airborne
type LeftGroundEvent struct {
	Character actor.BodyID
	// Ground is the body the character stood on
	Ground actor.BodyID
}

func (e LeftGroundEvent) Type() EventType { return LEFT_GROUND }

// GroundChangedEvent is sent when a character walks from one body onto another
type GroundChangedEvent struct {
	Character actor.BodyID
	From      actor.BodyID
	To        actor.BodyID
}

func (e GroundChangedEvent) Type() EventType { return GROUND_CHANGED }

type SteppedUpEvent struct {
	Character actor.BodyID
	Height    float64
}

func (e SteppedUpEvent) Type() EventType { return STEPPED_UP }

type JumpedEvent struct {
	Character actor.BodyID
}

func (e JumpedEvent) Type() EventType { return JUMPED }

// EventListener - callback for events
type EventListener func(event Event)

// groundState is the ground of a character at the end of a tick
type groundState struct {
	grounded bool
	entity   actor.BodyID
}

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Ground tracking for Landed/LeftGround/GroundChanged detection
	groundStates map[actor.BodyID]groundState
}

func NewEvents() Events {
	return Events{
		listeners:    make(map[EventType][]EventListener),
		buffer:       make([]Event, 0, 64),
		groundStates: make(map[actor.BodyID]groundState),
	}
}

// Subscribe adds a listener for an event type.
// Listeners run on the goroutine calling World.Step, after every character has moved.
// They may query the world but must not add or remove characters, nor call Step or Configure.
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordTick compares the ground of a character with the previous tick.
// The first tick of a character only records its state.
func (e *Events) recordTick(character actor.BodyID, ground *kcc.Ground, report controller.TickReport) {
	if e.groundStates == nil {
		e.groundStates = make(map[actor.BodyID]groundState)
	}

	current := groundState{}
	if ground != nil {
		current = groundState{grounded: true, entity: ground.Entity}
	}

	if report.Jumped {
		e.buffer = append(e.buffer, JumpedEvent{Character: character})
	}

	previous, tracked := e.groundStates[character]
	e.groundStates[character] = current

	if tracked {
		switch {
		case !previous.grounded && current.grounded:
			e.buffer = append(e.buffer, LandedEvent{Character: character, Ground: current.entity, Normal: ground.Normal})
		case previous.grounded && !current.grounded:
			e.buffer = append(e.buffer, LeftGroundEvent{Character: character, Ground: previous.entity})
		case previous.grounded && previous.entity != current.entity:
			e.buffer = append(e.buffer, GroundChangedEvent{Character: character, From: previous.entity, To: current.entity})
		}
	}

	if report.SteppedUp {
		e.buffer = append(e.buffer, SteppedUpEvent{Character: character, Height: report.StepHeight})
	}
}

// forget drops the tracking of a removed character
func (e *Events) forget(character actor.BodyID) {
	delete(e.groundStates, character)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}

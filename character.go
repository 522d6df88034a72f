package kinematic

import (
	"github.com/akmonengine/kinematic/actor"
	"github.com/akmonengine/kinematic/controller"
	"github.com/akmonengine/kinematic/kcc"
)

// Character is a controller-driven capsule registered in a World.
// Input and Filter may be changed between steps, the other fields are owned by the world.
type Character struct {
	// Body is the capsule registered in the world, moved after each step
	Body       *actor.Body
	Controller *controller.Controller
	State      controller.Character

	// Input is applied on every step until replaced
	Input controller.Input
	// Filter selects the bodies the character collides with, it excludes the character itself
	Filter kcc.QueryFilter

	// LastReport is the outcome of the last step
	LastReport controller.TickReport
}

// ID returns the character body id
func (c *Character) ID() actor.BodyID {
	return c.Body.ID
}

// Package tuning loads character movement settings from YAML files.
//
// A tuning file only needs the keys it changes: every missing key keeps the value of the
// embedded default.yaml. Angles are written in degrees.
package tuning

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/akmonengine/kinematic/controller"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFile []byte

type CharacterFile struct {
	Radius     float64 `yaml:"radius"`
	HalfHeight float64 `yaml:"half_height"`
}

// File mirrors controller.Config in the units of a tuning file
type File struct {
	Gravity            float64 `yaml:"gravity"`
	GroundAcceleration float64 `yaml:"ground_acceleration"`
	AirAcceleration    float64 `yaml:"air_acceleration"`
	Friction           float64 `yaml:"friction"`
	JumpImpulse        float64 `yaml:"jump_impulse"`
	MovementSpeed      float64 `yaml:"movement_speed"`

	WalkableAngle       float64 `yaml:"walkable_angle"`
	StepUpHeight        float64 `yaml:"step_up_height"`
	GroundCheckDistance float64 `yaml:"ground_check_distance"`

	MaxSubsteps                int     `yaml:"max_substeps"`
	Epsilon                    float64 `yaml:"epsilon"`
	ConstrainOriginalDirection bool    `yaml:"constrain_original_direction"`

	Character CharacterFile `yaml:"character"`
}

// Default returns the embedded tuning
func Default() File {
	var f File
	if err := decode(defaultFile, &f); err != nil {
		panic(fmt.Sprintf("tuning: embedded default.yaml: %v", err))
	}
	return f
}

// Parse decodes data over the embedded defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	f := Default()
	if err := decode(data, &f); err != nil {
		return File{}, fmt.Errorf("tuning: unmarshal: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Load reads and parses the tuning file at path
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("tuning: load %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("tuning: %s: %w", path, err)
	}
	return f, nil
}

func decode(data []byte, f *File) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the converted controller settings
func (f File) Validate() error {
	return f.Controller().Validate()
}

// Controller converts the file to controller settings
func (f File) Controller() controller.Config {
	return controller.Config{
		Gravity:                    f.Gravity,
		GroundAcceleration:         f.GroundAcceleration,
		AirAcceleration:            f.AirAcceleration,
		Friction:                   f.Friction,
		JumpImpulse:                f.JumpImpulse,
		MovementSpeed:              f.MovementSpeed,
		WalkableAngle:              f.WalkableAngle * math.Pi / 180,
		StepUpHeight:               f.StepUpHeight,
		GroundCheckDistance:        f.GroundCheckDistance,
		MaxSubsteps:                f.MaxSubsteps,
		Epsilon:                    f.Epsilon,
		ConstrainOriginalDirection: f.ConstrainOriginalDirection,
		CharacterRadius:            f.Character.Radius,
		CharacterHalfHeight:        f.Character.HalfHeight,
	}
}

// FromController converts controller settings back to a tuning file
func FromController(c controller.Config) File {
	return File{
		Gravity:                    c.Gravity,
		GroundAcceleration:         c.GroundAcceleration,
		AirAcceleration:            c.AirAcceleration,
		Friction:                   c.Friction,
		JumpImpulse:                c.JumpImpulse,
		MovementSpeed:              c.MovementSpeed,
		WalkableAngle:              c.WalkableAngle * 180 / math.Pi,
		StepUpHeight:               c.StepUpHeight,
		GroundCheckDistance:        c.GroundCheckDistance,
		MaxSubsteps:                c.MaxSubsteps,
		Epsilon:                    c.Epsilon,
		ConstrainOriginalDirection: c.ConstrainOriginalDirection,
		Character: CharacterFile{
			Radius:     c.CharacterRadius,
			HalfHeight: c.CharacterHalfHeight,
		},
	}
}

// Marshal encodes f as YAML
func (f File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

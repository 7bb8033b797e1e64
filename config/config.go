// Package config loads simulation specs and graph files from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"depgraph/engine"
	"depgraph/game"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// SimSpec is the simulation spec file.
type SimSpec struct {
	NumTimeStep int     `yaml:"numTimeStep" validate:"min=1"`
	DiscFact    float64 `yaml:"discFact" validate:"gt=0,lte=1"`
	NumSim      int     `yaml:"numSim" validate:"min=1"`
	Seed        uint64  `yaml:"seed"`
	Workers     int     `yaml:"workers" validate:"min=0"`

	Attacker string `yaml:"attacker" validate:"required"`
	Defender string `yaml:"defender" validate:"required"`

	Termination string `yaml:"termination" validate:"oneof=horizon allTargets"`
	RewardMode  string `yaml:"rewardMode" validate:"oneof=activeTargets newlyActivated"`

	// RL environment
	ProbGreedySelectionCutOff float64 `yaml:"probGreedySelectionCutOff" validate:"gte=0,lt=1"`
	LoseIfRepeat              bool    `yaml:"loseIfRepeat"`
	ObsLength                 int     `yaml:"obsLength" validate:"min=1"`
}

func DefaultSimSpec() SimSpec {
	return SimSpec{
		NumTimeStep:               10,
		DiscFact:                  0.9,
		NumSim:                    100,
		Seed:                      1,
		Attacker:                  "uniform:maxNumSelectCandidate_10_minNumSelectCandidate_2_numSelectCandidateRatio_0.5",
		Defender:                  "mincut:maxNumRes_10_minNumRes_2_numResRatio_0.5_numCandStdev_0",
		Termination:               "horizon",
		RewardMode:                "activeTargets",
		ProbGreedySelectionCutOff: 0.1,
		ObsLength:                 3,
	}
}

// LoadSimSpec reads a spec file. Fields the file omits keep their defaults.
func LoadSimSpec(path string) (SimSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SimSpec{}, fmt.Errorf("failed to read sim spec: %w", err)
	}
	spec := DefaultSimSpec()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return SimSpec{}, fmt.Errorf("failed to parse sim spec %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return SimSpec{}, fmt.Errorf("sim spec %s: %w", path, err)
	}
	return spec, nil
}

// GetSimSpecOrDefaults is LoadSimSpec, except that a missing file yields the
// defaults.
func GetSimSpecOrDefaults(path string) (SimSpec, error) {
	spec, err := LoadSimSpec(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSimSpec(), nil
	}
	return spec, err
}

func (s SimSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func (s SimSpec) TerminationMode() engine.Termination {
	if s.Termination == "allTargets" {
		return engine.AllTargetsOrHorizon
	}
	return engine.HorizonOnly
}

func (s SimSpec) Reward() game.RewardMode {
	if s.RewardMode == "newlyActivated" {
		return game.NewlyActivatedTargets
	}
	return game.ActiveTargets
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		if e.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s: failed %s=%s (got %v)", e.Namespace(), e.Tag(), e.Param(), e.Value()))
		} else {
			messages = append(messages, fmt.Sprintf("%s: failed %s", e.Namespace(), e.Tag()))
		}
	}
	return fmt.Errorf("%s: %w", strings.Join(messages, "; "), ErrInvalidConfig)
}

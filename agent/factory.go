package agent

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	UniformName          = "uniform"
	ValuePropagationName = "valuePropagation"
	MinCutName           = "mincut"
	GoalOnlyName         = "goalOnly"
	RootOnlyName         = "rootOnly"
)

const (
	defaultNumStateSample = 50
	defaultMaxNumBelief   = 30
)

type Params map[string]float64

// ParseStrategy splits "name:key1_val1_key2_val2" into the name and its
// parameters. A bare name has no parameters.
func ParseStrategy(s string) (string, Params, error) {
	name, encoded, _ := strings.Cut(strings.TrimSpace(s), ":")
	if name == "" {
		return "", nil, fmt.Errorf("strategy %q has no name: %w", s, ErrInvalidConfig)
	}
	params := Params{}
	if encoded == "" {
		return name, params, nil
	}
	parts := strings.Split(encoded, "_")
	if len(parts)%2 != 0 {
		return "", nil, fmt.Errorf("strategy %q has an unpaired parameter: %w", s, ErrInvalidConfig)
	}
	for i := 0; i < len(parts); i += 2 {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return "", nil, fmt.Errorf("strategy %q parameter %s: %w", s, parts[i], ErrInvalidConfig)
		}
		params[parts[i]] = v
	}
	return name, params, nil
}

// EncodeStrategy is the inverse of ParseStrategy with keys in sorted order.
func EncodeStrategy(name string, params Params) string {
	if len(params) == 0 {
		return name
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		parts = append(parts, k, strconv.FormatFloat(params[k], 'g', -1, 64))
	}
	return name + ":" + strings.Join(parts, "_")
}

func (p Params) get(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing parameter %s: %w", key, ErrInvalidConfig)
	}
	return v, nil
}

func (p Params) getOr(key string, fallback float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return fallback
}

// ints reads integer-valued parameters in order, stopping at the first error.
func (p Params) ints(keys ...string) ([]int, error) {
	out := make([]int, len(keys))
	for i, k := range keys {
		v, err := p.get(k)
		if err != nil {
			return nil, err
		}
		if out[i], err = toInt(k, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p Params) intOr(key string, fallback int) (int, error) {
	v, ok := p[key]
	if !ok {
		return fallback, nil
	}
	return toInt(key, v)
}

func toInt(key string, v float64) (int, error) {
	if math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("parameter %s=%v is not an integer: %w", key, v, ErrInvalidConfig)
	}
	return int(v), nil
}

// NewAttacker builds an attacker from its strategy-table name.
func NewAttacker(name string, params Params, discFact float64) (Attacker, error) {
	key := strings.ToLower(name)
	if key != strings.ToLower(UniformName) && key != strings.ToLower(ValuePropagationName) {
		return nil, fmt.Errorf("attacker %q: %w", name, ErrUnknownStrategy)
	}
	counts, err := params.ints("maxNumSelectCandidate", "minNumSelectCandidate")
	if err != nil {
		return nil, fmt.Errorf("attacker %s: %w", name, err)
	}
	ratio, err := params.get("numSelectCandidateRatio")
	if err != nil {
		return nil, fmt.Errorf("attacker %s: %w", name, err)
	}
	if key == strings.ToLower(UniformName) {
		a, err := NewUniformAttacker(counts[0], counts[1], ratio)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	qr, err := params.get("qrParam")
	if err != nil {
		return nil, fmt.Errorf("attacker %s: %w", name, err)
	}
	a, err := NewValuePropagationAttacker(counts[0], counts[1], ratio, qr, discFact)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// NewDefender builds a defender from its strategy-table name.
func NewDefender(name string, params Params, discFact float64) (Defender, error) {
	key := strings.ToLower(name)
	if key == strings.ToLower(ValuePropagationName) {
		return newValuePropagationDefender(params, discFact)
	}
	pools := map[string]func(int, int, float64) (*PoolDefender, error){
		strings.ToLower(UniformName):  NewUniformDefender,
		strings.ToLower(GoalOnlyName): NewGoalOnlyDefender,
		strings.ToLower(RootOnlyName): NewRootOnlyDefender,
		strings.ToLower(MinCutName): func(maxNumRes, minNumRes int, ratio float64) (*PoolDefender, error) {
			return NewMinCutDefender(maxNumRes, minNumRes, ratio, params.getOr("numCandStdev", 0))
		},
	}
	build, ok := pools[key]
	if !ok {
		return nil, fmt.Errorf("defender %q: %w", name, ErrUnknownStrategy)
	}
	counts, err := params.ints("maxNumRes", "minNumRes")
	if err != nil {
		return nil, fmt.Errorf("defender %s: %w", name, err)
	}
	ratio, err := params.get("numResRatio")
	if err != nil {
		return nil, fmt.Errorf("defender %s: %w", name, err)
	}
	d, err := build(counts[0], counts[1], ratio)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newValuePropagationDefender(params Params, discFact float64) (Defender, error) {
	counts, err := params.ints("maxNumRes", "minNumRes", "maxNumAttCandidate", "minNumAttCandidate")
	if err != nil {
		return nil, fmt.Errorf("defender %s: %w", ValuePropagationName, err)
	}
	var floats [3]float64
	for i, k := range []string{"numResRatio", "numAttCandidateRatio", "logisParam"} {
		if floats[i], err = params.get(k); err != nil {
			return nil, fmt.Errorf("defender %s: %w", ValuePropagationName, err)
		}
	}
	numStateSample, err := params.intOr("numStateSample", defaultNumStateSample)
	if err != nil {
		return nil, fmt.Errorf("defender %s: %w", ValuePropagationName, err)
	}
	maxNumBelief, err := params.intOr("maxNumBelief", defaultMaxNumBelief)
	if err != nil {
		return nil, fmt.Errorf("defender %s: %w", ValuePropagationName, err)
	}
	d, err := NewValuePropagationDefender(ValuePropagationConfig{
		MaxNumRes:            counts[0],
		MinNumRes:            counts[1],
		NumResRatio:          floats[0],
		LogisParam:           floats[2],
		DiscFact:             discFact,
		Thres:                params.getOr("thres", 0),
		NumStateSample:       numStateSample,
		MaxNumBelief:         maxNumBelief,
		MaxNumAttCandidate:   counts[2],
		MinNumAttCandidate:   counts[3],
		NumAttCandidateRatio: floats[1],
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

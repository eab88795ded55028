package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"

	"github.com/icewatch/icewatch/pkg/drift"
	"github.com/icewatch/icewatch/pkg/engine"
)

// Pack is a named Rego policy evaluated over drift reports. Packs add
// advisory decisions on top of the severity-to-action rule table; they
// cannot suppress decisions the rule table produced.
type Pack struct {
	// Name is the unique name of the pack.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy source.
	Rego string `json:"rego"`

	// Enabled indicates if the pack is active.
	Enabled bool `json:"enabled"`
}

// PackInput is the document Rego packs evaluate against.
type PackInput struct {
	// ExpectedState is the replay-derived lifecycle state.
	ExpectedState engine.TableState `json:"expected_state"`

	// Report is the drift report being judged.
	Report drift.Report `json:"report"`
}

// PackEngine compiles and evaluates Rego policy packs.
type PackEngine struct {
	mu     sync.RWMutex
	packs  map[string]*compiledPack
	logger zerolog.Logger
}

// compiledPack is a pack with its prepared query.
type compiledPack struct {
	pack     *Pack
	query    rego.PreparedEvalQuery
	compiled time.Time
}

// NewPackEngine creates a pack engine preloaded with the built-in packs.
func NewPackEngine(logger zerolog.Logger) (*PackEngine, error) {
	e := NewEmptyPackEngine(logger)

	for _, pack := range BuiltinPacks() {
		if err := e.Add(context.Background(), pack); err != nil {
			return nil, fmt.Errorf("compile built-in pack %s: %w", pack.Name, err)
		}
	}

	return e, nil
}

// NewEmptyPackEngine creates a pack engine without the built-in packs.
func NewEmptyPackEngine(logger zerolog.Logger) *PackEngine {
	return &PackEngine{
		packs:  make(map[string]*compiledPack),
		logger: logger.With().Str("component", "policy-packs").Logger(),
	}
}

// Add compiles and registers a pack.
func (e *PackEngine) Add(ctx context.Context, pack Pack) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := ast.ParseModule(pack.Name, pack.Rego); err != nil {
		return fmt.Errorf("parse pack %s: %w", pack.Name, err)
	}

	query := fmt.Sprintf("data.%s.deny", packageName(pack.Rego))
	prepared, err := rego.New(
		rego.Module(pack.Name, pack.Rego),
		rego.Query(query),
	).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("prepare pack %s: %w", pack.Name, err)
	}

	e.packs[pack.Name] = &compiledPack{
		pack:     &pack,
		query:    prepared,
		compiled: time.Now(),
	}

	e.logger.Debug().Str("pack", pack.Name).Msg("Policy pack compiled")
	return nil
}

// List returns all registered packs.
func (e *PackEngine) List() []Pack {
	e.mu.RLock()
	defer e.mu.RUnlock()

	packs := make([]Pack, 0, len(e.packs))
	for _, cp := range e.packs {
		packs = append(packs, *cp.pack)
	}
	return packs
}

// Evaluate runs every enabled pack over the input and returns the advisory
// decisions their deny sets produce, in pack-iteration order.
func (e *PackEngine) Evaluate(ctx context.Context, input PackInput) ([]Decision, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var decisions []Decision
	for _, cp := range e.packs {
		if !cp.pack.Enabled {
			continue
		}

		results, err := cp.query.Eval(ctx, rego.EvalInput(input))
		if err != nil {
			return nil, fmt.Errorf("evaluate pack %s: %w", cp.pack.Name, err)
		}

		for _, result := range results {
			for _, expr := range result.Expressions {
				denySet, ok := expr.Value.([]interface{})
				if !ok {
					continue
				}
				for _, d := range denySet {
					decisions = append(decisions, e.decisionFrom(cp.pack, d))
				}
			}
		}
	}

	return decisions, nil
}

// decisionFrom converts a deny entry into an advisory decision.
func (e *PackEngine) decisionFrom(pack *Pack, result interface{}) Decision {
	decision := Decision{
		Severity: drift.SeverityInfo,
		Action:   ActionObserve,
		Reason:   fmt.Sprintf("policy pack %s", pack.Name),
	}

	switch v := result.(type) {
	case string:
		decision.Reason = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			decision.Reason = msg
		}
		if sev, ok := v["severity"].(string); ok {
			decision.Severity = drift.Severity(sev)
		}
		if act, ok := v["action"].(string); ok {
			decision.Action = Action(act)
		}
	default:
		decision.Reason = fmt.Sprintf("%v", result)
	}

	return decision
}

// packageName extracts the package name from Rego source.
func packageName(source string) string {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "icewatch.policies"
}

package entities

import "strings"

// Placement locates an application (or any target) in the state → division →
// district → block hierarchy. Level is authoritative when set; the inference
// shim below covers legacy rows written before the field existed.
type Placement struct {
	Level    Level
	State    string
	Division string
	District string
	Block    string
}

// Resolve returns the effective level and entity id for the placement.
// When Level is unset it falls back to finest-populated-field inference.
func (p Placement) Resolve() (Level, string) {
	if p.Level.Valid() {
		switch p.Level {
		case LevelBlock:
			return LevelBlock, p.Block
		case LevelDistrict:
			return LevelDistrict, p.District
		case LevelDivision:
			return LevelDivision, p.Division
		default:
			return LevelState, p.State
		}
	}

	// Legacy rows: the finest non-empty location field wins.
	if strings.TrimSpace(p.Block) != "" {
		return LevelBlock, p.Block
	}
	if strings.TrimSpace(p.District) != "" {
		return LevelDistrict, p.District
	}
	if strings.TrimSpace(p.Division) != "" {
		return LevelDivision, p.Division
	}
	return LevelState, p.State
}

// ScopeFilter is one disjunct of a list-query filter derived from an actor's
// scope. Empty slices mean the field does not participate in the filter.
type ScopeFilter struct {
	State     string
	Division  string
	Districts []string
	Blocks    []string
}

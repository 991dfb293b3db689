package services

import (
	"strings"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

// Lexicon holds the three keyword tiers for one trade category. Primary terms
// are the strongest signal of hands-on expertise; safety terms are weighted
// above secondary process vocabulary because safety terminology is
// disproportionately predictive of hire suitability in blue-collar roles.
type Lexicon struct {
	Primary   []string
	Secondary []string
	Safety    []string
}

// LexiconStore maps trade categories to keyword lexicons. It is an explicit
// injectable dependency of the scorer, not a package-level table, so tests and
// tenants can swap vocabularies without code changes.
type LexiconStore struct {
	lexicons map[string]Lexicon
}

// NewLexiconStore returns the built-in trade vocabularies.
func NewLexiconStore() *LexiconStore {
	return &LexiconStore{lexicons: map[string]Lexicon{
		models.TradeConstruction: {
			Primary:   []string{"construction", "concrete", "frame", "foundation", "blueprint", "drywall", "roofing", "carpentry", "excavation", "masonry", "scaffold"},
			Secondary: []string{"measure", "level", "crew", "site", "contractor", "inspection", "permit", "materials", "schedule"},
			Safety:    []string{"safety", "hard hat", "harness", "osha", "fall protection", "ppe", "lockout", "hazard"},
		},
		models.TradeElectrical: {
			Primary:   []string{"electrical", "wiring", "circuit", "voltage", "breaker", "conduit", "panel", "transformer", "amperage", "grounding"},
			Secondary: []string{"install", "troubleshoot", "blueprint", "code", "meter", "inspection", "load", "schematic"},
			Safety:    []string{"safety", "lockout", "tagout", "arc flash", "insulated", "ppe", "grounded", "hazard", "de-energize"},
		},
		models.TradePlumbing: {
			Primary:   []string{"plumbing", "pipe", "fitting", "drain", "valve", "solder", "fixture", "water heater", "sewer", "pex", "copper"},
			Secondary: []string{"install", "repair", "pressure", "leak", "inspection", "code", "blueprint", "rough-in"},
			Safety:    []string{"safety", "ppe", "ventilation", "shutoff", "backflow", "hazard", "confined space"},
		},
		models.TradeWelding: {
			Primary:   []string{"weld", "mig", "tig", "stick", "arc", "torch", "bead", "joint", "fabrication", "metal", "stainless"},
			Secondary: []string{"blueprint", "fit-up", "grind", "inspection", "certification", "position", "penetration"},
			Safety:    []string{"safety", "helmet", "ventilation", "fumes", "ppe", "fire watch", "shield", "hazard"},
		},
		models.TradeManufacturing: {
			Primary:   []string{"manufacturing", "assembly", "machine", "cnc", "production", "quality", "lathe", "mill", "tolerance", "calibration"},
			Secondary: []string{"shift", "line", "inspection", "maintenance", "throughput", "blueprint", "spec", "lean"},
			Safety:    []string{"safety", "lockout", "tagout", "guard", "ppe", "ergonomic", "hazard", "msds"},
		},
		models.TradeMaintenance: {
			Primary:   []string{"maintenance", "repair", "hvac", "preventive", "troubleshoot", "equipment", "hydraulic", "pneumatic", "motor", "bearing"},
			Secondary: []string{"schedule", "work order", "inspection", "parts", "diagnostic", "manual", "upkeep"},
			Safety:    []string{"safety", "lockout", "tagout", "ppe", "hazard", "confined space", "fall protection"},
		},
		models.TradeGeneral: {
			Primary:   []string{"experience", "work", "skill", "tool", "job", "project", "team", "trade"},
			Secondary: []string{"reliable", "schedule", "learn", "train", "quality", "detail"},
			Safety:    []string{"safety", "ppe", "hazard", "careful", "protection"},
		},
	}}
}

// Resolve returns the lexicon for a trade category, falling back to the
// general lexicon for any unrecognized category string.
func (s *LexiconStore) Resolve(tradeCategory string) Lexicon {
	if lex, ok := s.lexicons[strings.ToLower(strings.TrimSpace(tradeCategory))]; ok {
		return lex
	}
	return s.lexicons[models.TradeGeneral]
}

// MatchTier returns the keywords of one tier found in the candidate text.
// Matching is case-insensitive substring containment; no stemming is applied.
// The hit list, not just a count, is kept so scores stay explainable.
func MatchTier(candidateText string, keywords []string) []string {
	lowered := strings.ToLower(candidateText)
	var hits []string
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			hits = append(hits, keyword)
		}
	}
	return hits
}

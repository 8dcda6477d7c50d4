package ir

import "fmt"

// Process is the closed set of process classes a physics-engine process name
// maps to. The numbering is stable and persisted.
type Process int

const (
	ProcessUncovered Process = iota
	ProcessCompton
	ProcessPhoto
	ProcessPair
	ProcessRayleigh
	ProcessAnnihilation
	ProcessBrem
	ProcessElastic
	ProcessInelastic
	ProcessFission
	ProcessCapture
	ProcessDecay
	ProcessRadioactiveDecay
	ProcessIonization
	ProcessTransportation
)

var processNames = [...]string{
	ProcessUncovered:        "uncovered",
	ProcessCompton:          "compton",
	ProcessPhoto:            "photo",
	ProcessPair:             "pair",
	ProcessRayleigh:         "rayleigh",
	ProcessAnnihilation:     "annihilation",
	ProcessBrem:             "brem",
	ProcessElastic:          "elastic",
	ProcessInelastic:        "inelastic",
	ProcessFission:          "fission",
	ProcessCapture:          "capture",
	ProcessDecay:            "decay",
	ProcessRadioactiveDecay: "radioactive_decay",
	ProcessIonization:       "ionization",
	ProcessTransportation:   "transportation",
}

func (p Process) String() string {
	if p < 0 || int(p) >= len(processNames) {
		return fmt.Sprintf("process(%d)", int(p))
	}
	return processNames[p]
}

// Category is the kind of an emitted InteractionRecord. It is wider than
// Process: the stream builder also emits geometric records (escape, entry,
// exit, black absorber) that have no physics process behind them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryCompton
	CategoryPair
	CategoryPhoto
	CategoryRayleigh
	CategoryBrem
	CategoryAnnihilation
	CategoryElastic
	CategoryInelastic
	CategoryFission
	CategoryCapture
	CategoryDecay
	CategoryRadioactiveDecay
	CategoryIonization
	CategoryTransportation
	CategoryEscape
	CategoryEntry
	CategoryExit
	CategoryBlackAbsorber
)

// categoryCodes are the four-letter codes written next to each record.
// Radioactive decays are written as DECA and transportation steps that
// are reclassified as ionization are written as IONI.
var categoryCodes = [...]string{
	CategoryUnknown:          "UNKN",
	CategoryCompton:          "COMP",
	CategoryPair:             "PAIR",
	CategoryPhoto:            "PHOT",
	CategoryRayleigh:         "RAYL",
	CategoryBrem:             "BREM",
	CategoryAnnihilation:     "ANNI",
	CategoryElastic:          "ELAS",
	CategoryInelastic:        "INEL",
	CategoryFission:          "FISS",
	CategoryCapture:          "CAPT",
	CategoryDecay:            "DECA",
	CategoryRadioactiveDecay: "DECA",
	CategoryIonization:       "IONI",
	CategoryTransportation:   "IONI",
	CategoryEscape:           "ESCP",
	CategoryEntry:            "ENTR",
	CategoryExit:             "EXIT",
	CategoryBlackAbsorber:    "BLAK",
}

var categoryNames = [...]string{
	CategoryUnknown:          "unknown",
	CategoryCompton:          "compton",
	CategoryPair:             "pair",
	CategoryPhoto:            "photo",
	CategoryRayleigh:         "rayleigh",
	CategoryBrem:             "brem",
	CategoryAnnihilation:     "annihilation",
	CategoryElastic:          "elastic",
	CategoryInelastic:        "inelastic",
	CategoryFission:          "fission",
	CategoryCapture:          "capture",
	CategoryDecay:            "decay",
	CategoryRadioactiveDecay: "radioactive_decay",
	CategoryIonization:       "ionization",
	CategoryTransportation:   "transportation",
	CategoryEscape:           "escape",
	CategoryEntry:            "entry",
	CategoryExit:             "exit",
	CategoryBlackAbsorber:    "black_absorber",
}

func (c Category) valid() bool {
	return c >= 0 && int(c) < len(categoryNames)
}

// Code returns the four-letter record code.
func (c Category) Code() string {
	if !c.valid() {
		return categoryCodes[CategoryUnknown]
	}
	return categoryCodes[c]
}

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory resolves a category from its snake_case name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return CategoryUnknown, false
}

// sharedCodes names the category a code parses back to when several
// categories are written with it.
var sharedCodes = map[string]Category{
	"DECA": CategoryRadioactiveDecay,
	"IONI": CategoryIonization,
}

// ParseCategoryCode resolves a category from its four-letter code. DECA
// yields CategoryRadioactiveDecay and IONI yields CategoryIonization, so
// Decay and Transportation do not round-trip through their codes.
func ParseCategoryCode(code string) (Category, bool) {
	if c, ok := sharedCodes[code]; ok {
		return c, true
	}
	for i, c := range categoryCodes {
		if c == code {
			return Category(i), true
		}
	}
	return CategoryUnknown, false
}

// CategoryFor maps a classified process to the category its records carry.
func CategoryFor(p Process) Category {
	switch p {
	case ProcessCompton:
		return CategoryCompton
	case ProcessPhoto:
		return CategoryPhoto
	case ProcessPair:
		return CategoryPair
	case ProcessRayleigh:
		return CategoryRayleigh
	case ProcessAnnihilation:
		return CategoryAnnihilation
	case ProcessBrem:
		return CategoryBrem
	case ProcessElastic:
		return CategoryElastic
	case ProcessInelastic:
		return CategoryInelastic
	case ProcessFission:
		return CategoryFission
	case ProcessCapture:
		return CategoryCapture
	case ProcessDecay:
		return CategoryDecay
	case ProcessRadioactiveDecay:
		return CategoryRadioactiveDecay
	case ProcessIonization:
		return CategoryIonization
	case ProcessTransportation:
		return CategoryTransportation
	default:
		return CategoryUnknown
	}
}

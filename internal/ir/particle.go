package ir

import (
	"strconv"
	"strings"
)

// ParticleCode identifies a particle species in records. Codes 1..55 are
// fixed; nuclei are encoded as 1000*Z + A.
type ParticleCode int

const (
	ParticleNone         ParticleCode = 0
	ParticleGamma        ParticleCode = 1
	ParticlePositron     ParticleCode = 2
	ParticleElectron     ParticleCode = 3
	ParticleProton       ParticleCode = 4
	ParticleAntiProton   ParticleCode = 5
	ParticleNeutron      ParticleCode = 6
	ParticleAntiNeutron  ParticleCode = 7
	ParticleDeuteron     ParticleCode = 18
	ParticleTriton       ParticleCode = 19
	ParticleHe3          ParticleCode = 20
	ParticleAlpha        ParticleCode = 21
	ParticleGenericIon   ParticleCode = 22
	ParticleOmegaMeson   ParticleCode = 55
	ParticleInvalid      ParticleCode = -99999987
	nucleusCodeThreshold              = 1000
)

// particleNames lists the fixed particle names by code.
var particleNames = [...]string{
	1: "gamma", 2: "e+", 3: "e-", 4: "proton", 5: "anti_proton",
	6: "neutron", 7: "anti_neutron", 8: "mu+", 9: "mu-", 10: "tau+",
	11: "tau-", 12: "nu_e", 13: "anti_nu_e", 14: "nu_mu", 15: "anti_nu_mu",
	16: "nu_tau", 17: "anti_nu_tau", 18: "deuteron", 19: "triton", 20: "He3",
	21: "alpha", 22: "GenericIon", 23: "pi+", 24: "pi0", 25: "pi-",
	26: "eta", 27: "eta_prime", 28: "kaon+", 29: "kaon0", 30: "anti_kaon0",
	31: "kaon0S", 32: "kaon0L", 33: "kaon-", 34: "lambda", 35: "anti_lambda",
	36: "sigma+", 37: "anti_sigma+", 38: "sigma0", 39: "anti_sigma0", 40: "sigma-",
	41: "anti_sigma-", 42: "xi0", 43: "anti_xi0", 44: "xi-", 45: "anti_xi-",
	46: "omega-", 47: "anti_omega-", 48: "rho+", 49: "rho0", 50: "rho-",
	51: "delta-", 52: "delta0", 53: "delta+", 54: "delta++", 55: "omega",
}

var particleByName map[string]ParticleCode

// elementSymbols indexes chemical symbols by Z.
var elementSymbols = [...]string{
	"", "H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var elementBySymbol map[string]int

func init() {
	particleByName = make(map[string]ParticleCode, len(particleNames))
	for code, name := range particleNames {
		if name != "" {
			particleByName[name] = ParticleCode(code)
		}
	}
	elementBySymbol = make(map[string]int, len(elementSymbols))
	for z, sym := range elementSymbols {
		if sym != "" {
			elementBySymbol[sym] = z
		}
	}
}

// NucleusCode encodes a nucleus as 1000*Z + A.
func NucleusCode(z, a int) ParticleCode {
	return ParticleCode(nucleusCodeThreshold*z + a)
}

// IsNucleus reports whether the code encodes a nucleus.
func (p ParticleCode) IsNucleus() bool {
	return p > nucleusCodeThreshold
}

// Z returns the charge number of a nucleus code, or 0.
func (p ParticleCode) Z() int {
	if !p.IsNucleus() {
		return 0
	}
	return int(p) / nucleusCodeThreshold
}

// A returns the mass number of a nucleus code, or 0.
func (p ParticleCode) A() int {
	if !p.IsNucleus() {
		return 0
	}
	return int(p) % nucleusCodeThreshold
}

// String returns the engine-style name: fixed names for codes 1..55,
// "Co60" style names for nuclei.
func (p ParticleCode) String() string {
	if p > 0 && int(p) < len(particleNames) && particleNames[p] != "" {
		return particleNames[p]
	}
	if p.IsNucleus() && p.Z() < len(elementSymbols) {
		return elementSymbols[p.Z()] + strconv.Itoa(p.A())
	}
	if p == ParticleInvalid {
		return "invalid"
	}
	return "unknown"
}

// ParseParticleName resolves a physics-engine particle name. Unknown names
// return ParticleNone and false.
func ParseParticleName(name string) (ParticleCode, bool) {
	if code, ok := particleByName[name]; ok {
		return code, true
	}

	switch {
	case strings.HasPrefix(name, "delta"):
		// Resonance names carry the charge in their suffix.
		switch {
		case strings.HasSuffix(name, "++"):
			return 54, true
		case strings.HasSuffix(name, "+"):
			return 53, true
		case strings.HasSuffix(name, "0"):
			return 52, true
		case strings.HasSuffix(name, "-"):
			return 51, true
		}
	case strings.HasPrefix(name, "N("):
		switch name[len(name)-1] {
		case '-':
			return ParticleAntiProton, true
		case '0':
			return ParticleNeutron, true
		case '+':
			return ParticleProton, true
		}
	case strings.HasPrefix(name, "omega"):
		return ParticleOmegaMeson, true
	}

	if code, ok := parseIonName(name); ok {
		return code, true
	}
	return ParticleNone, false
}

// parseIonName handles ion names such as "Co60", "Co60[0.0]" or "Am241[59.541]".
func parseIonName(name string) (ParticleCode, bool) {
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	split := strings.IndexAny(name, "0123456789")
	if split <= 0 {
		return ParticleNone, false
	}
	z, ok := elementBySymbol[name[:split]]
	if !ok {
		return ParticleNone, false
	}
	a, err := strconv.Atoi(name[split:])
	if err != nil || a <= 0 || a >= nucleusCodeThreshold {
		return ParticleNone, false
	}
	return NucleusCode(z, a), true
}

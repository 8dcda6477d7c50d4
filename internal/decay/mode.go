package decay

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the run-wide decay handling policy.
type Mode int

const (
	ModeNormal Mode = iota
	ModeIgnore
	ModeBuildUp
	ModeActivationBuildUp
	ModeActivationDelayedDecay
)

var modeNames = [...]string{
	ModeNormal:                 "normal",
	ModeIgnore:                 "ignore",
	ModeBuildUp:                "buildup",
	ModeActivationBuildUp:      "activationbuildup",
	ModeActivationDelayedDecay: "activationdelayeddecay",
}

// Modes returns all modes in declaration order.
func Modes() []Mode {
	return []Mode{ModeNormal, ModeIgnore, ModeBuildUp, ModeActivationBuildUp, ModeActivationDelayedDecay}
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ResetsSecondaryTime reports whether kept decay products restart their
// clock at zero. In the build-up and activation modes every decay product
// starts its own event.
func (m Mode) ResetsSecondaryTime() bool {
	return m == ModeBuildUp || m == ModeActivationBuildUp || m == ModeActivationDelayedDecay
}

// ParseMode resolves a configured decay mode, case-insensitively.
// "build-up" is accepted as an alias of "buildup".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return ModeNormal, nil
	case "ignore":
		return ModeIgnore, nil
	case "buildup", "build-up":
		return ModeBuildUp, nil
	case "activationbuildup":
		return ModeActivationBuildUp, nil
	case "activationdelayeddecay":
		return ModeActivationDelayedDecay, nil
	default:
		return ModeNormal, &ModeError{Value: s}
	}
}

// ModeError is a configuration error for an unrecognized decay mode.
type ModeError struct {
	Value string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("unknown decay mode %q (want one of %s)",
		e.Value, strings.Join(modeNames[:], ", "))
}

// IsModeError returns true if the error is a ModeError.
// Uses errors.As to handle wrapped errors.
func IsModeError(err error) bool {
	var me *ModeError
	return errors.As(err, &me)
}

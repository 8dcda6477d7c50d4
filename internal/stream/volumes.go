package stream

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/ir"
)

// contains reports whether name is part of a touchable history, either as
// an exact physical volume name or as a suffix of a logical volume name.
func contains(history []VolumeRef, name string) bool {
	for _, v := range history {
		if v.Physical == name || strings.HasSuffix(v.Logical, name) {
			return true
		}
	}
	return false
}

// crossed returns the names whose containment changed between the two
// step points, split by direction.
func crossed(pre, post StepPoint, names []string) (entered, left []string) {
	if len(names) == 0 || pre.Volume == post.Volume {
		return nil, nil
	}
	for _, name := range names {
		inPre := contains(pre.Touchables, name)
		inPost := contains(post.Touchables, name)
		switch {
		case !inPre && inPost:
			entered = append(entered, name)
		case inPre && !inPost:
			left = append(left, name)
		}
	}
	return entered, left
}

func (st *stepState) watchVolumes() {
	entered, left := crossed(st.step.Pre, st.step.Post, st.b.cfg.WatchedVolumes)
	// Records follow the configured volume order, entry before exit.
	for _, name := range st.b.cfg.WatchedVolumes {
		if has(entered, name) {
			st.emitBoundary(ir.CategoryEntry, st.step.Post.Detector, st.step.Post.Position, st.step.Post)
		}
		if has(left, name) {
			st.emitBoundary(ir.CategoryExit, st.step.Pre.Detector, st.step.Post.Position, st.step.Post)
		}
	}
}

func (st *stepState) checkBlackAbsorbers() {
	entered, _ := crossed(st.step.Pre, st.step.Post, st.b.cfg.BlackAbsorbers)
	for range entered {
		st.emitBoundary(ir.CategoryBlackAbsorber, st.step.Post.Detector, st.step.Post.Position, st.step.Post)
		st.kill(KillBlackAbsorber, false)
	}
}

// emitBoundary emits a geometric record carrying the track's state at p.
func (st *stepState) emitBoundary(cat ir.Category, det ir.DetectorType, pos r3.Vec, p StepPoint) {
	r := st.record(cat, st.b.ids.Next(), pos)
	r.DetectorType = det
	r.InType = st.step.Particle
	r.InDirection = p.Direction
	r.InPolarization = p.Polarization
	r.InEnergy = p.KineticEnergy
	st.emit(r)
}

func has(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

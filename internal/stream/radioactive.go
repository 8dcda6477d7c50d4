package stream

import (
	"github.com/roach88/comptonseq/internal/decay"
	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/session"
)

// radioactiveDecay applies the run's decay mode to a decay step.
func (st *stepState) radioactiveDecay() {
	s := st.step
	b := st.b
	if len(s.Secondaries) == 0 {
		return
	}

	delay := s.Secondaries[0].GlobalTime - s.Pre.GlobalTime
	primary := st.row.info.OriginID <= int64(len(b.initial))
	in := decay.Input{
		TimeDelay:                          delay,
		IsPrimaryDecay:                     primary,
		IsInitialParticleFromBuildUpSource: b.cfg.BuildUpSource && primary && b.isInitialType(s.Particle),
	}
	d := b.scheduler.Decide(in)
	b.logger.Debug("radioactive decay",
		"particle", s.Particle.String(), "delay", delay, "decision", d.String())

	if d.Store {
		st.storeIsotope()
	}

	if d.Keep {
		reset := b.scheduler.Mode().ResetsSecondaryTime()
		for _, i := range st.order(true) {
			sec := s.Secondaries[i]
			id := b.ids.Next()
			b.tracks.Insert(sec.TrackID, ir.TrackInformation{ID: id, OriginID: id})
			st.assigned[i] = true

			if reset {
				sec.GlobalTime = 0
				st.out.Secondaries[i].GlobalTime = 0
				st.out.Secondaries[i].TimeReset = true
			}

			r := st.record(ir.CategoryRadioactiveDecay, id, sec.Position)
			r.Time = sec.GlobalTime
			r.InType = s.Particle
			st.outgoing(&r, sec, shape{})
			st.emit(r)
		}
	} else {
		st.kill(KillDecayDiscarded, true)
	}

	volume := session.TruncateVolumeName(s.Pre.InnermostLogical())

	// Unreachable under the current decision table: DoNotStart only comes
	// with a prompt decay. Kept so a table change cannot silently drop it.
	if d.DoNotStart && b.scheduler.Delayed(delay) {
		b.session.SkipOneEvent(s.Particle, volume)
	}

	if d.FutureEvent {
		b.session.AddToBuildUpEventList(session.FutureEvent{
			Position:   s.Post.Position,
			GlobalTime: s.Post.GlobalTime,
			Species:    s.Particle,
			Volume:     volume,
		})
	}
}

func (st *stepState) storeIsotope() {
	s := st.step
	b := st.b
	if b.levels == nil {
		b.logger.Error("cannot store isotope without nuclear level data", "particle", s.Particle.String())
		return
	}
	key, err := decay.Canonicalize(s.Particle, s.Excitation, b.levels)
	if err != nil {
		b.logger.Error("cannot store isotope", "particle", s.Particle.String(),
			"excitation", s.Excitation, "error", err)
		return
	}
	b.session.AddIsotope(key, s.Pre.Volume)
}

func (b *Builder) isInitialType(p ir.ParticleCode) bool {
	for _, q := range b.initial {
		if q == p {
			return true
		}
	}
	return false
}

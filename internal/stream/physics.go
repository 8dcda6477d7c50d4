package stream

import (
	"github.com/roach88/comptonseq/internal/ir"
)

// shape describes how a physics category turns secondaries into records.
type shape struct {
	// inType overrides the incoming particle type; zero means the track's
	// own particle.
	inType ir.ParticleCode

	// inKinematics carries the pre-step direction, polarization and energy
	// into the record. Otherwise the incoming fields stay zero.
	inKinematics bool

	// reverse walks the secondaries from last to first.
	reverse bool

	// atTrack places the record at the post-step point instead of at the
	// secondary.
	atTrack bool

	dropOutPolarization bool

	// rewrite moves the track id to each new interaction id.
	rewrite bool
}

var (
	comptonShape  = shape{inType: ir.ParticleGamma, inKinematics: true, rewrite: true}
	photoShape    = shape{inType: ir.ParticleGamma, rewrite: true}
	pairShape     = shape{inType: ir.ParticleGamma, reverse: true, dropOutPolarization: true}
	annihShape    = shape{reverse: true}
	bremShape     = shape{inKinematics: true}
	rayleighShape = shape{inType: ir.ParticleGamma, inKinematics: true}
	hadronShape   = shape{inKinematics: true, reverse: true, atTrack: true}
	captureShape  = shape{reverse: true}
	decayShape    = shape{reverse: true}
	ionShape      = shape{inKinematics: true, rewrite: true}
)

func (st *stepState) classify(proc ir.Process) {
	n := len(st.step.Secondaries)
	log := st.b.logger

	switch proc {
	case ir.ProcessCompton:
		if n == 0 {
			// The sub-threshold electron's energy is deposited locally and
			// attributed to the track as if it were that electron.
			r := st.zeroRecord(ir.CategoryCompton, comptonShape)
			r.OutType = ir.ParticleElectron
			r.OutEnergy = st.step.Deposit
			r.Deposit = st.step.Deposit
			st.emit(r)
			return
		}
		st.spawn(ir.CategoryCompton, comptonShape)

	case ir.ProcessPhoto:
		if n == 0 {
			// The photo electron stayed below threshold; its energy is the
			// step's local deposit.
			r := st.zeroRecord(ir.CategoryPhoto, photoShape)
			r.Deposit = st.step.Deposit
			st.emit(r)
			return
		}
		// Only the zero-secondary case moves the track id for photo.
		sh := photoShape
		sh.rewrite = false
		st.spawn(ir.CategoryPhoto, sh)

	case ir.ProcessPair:
		if n != 2 {
			log.Debug("pair creation should generate two secondaries, thresholds are probably too high",
				"secondaries", n, "deposit", st.step.Deposit)
		}
		if n == 0 {
			st.emit(st.zeroRecord(ir.CategoryPair, pairShape))
			return
		}
		st.spawn(ir.CategoryPair, pairShape)

	case ir.ProcessAnnihilation:
		if n == 0 {
			st.emit(st.zeroRecord(ir.CategoryAnnihilation, annihShape))
			return
		}
		st.spawn(ir.CategoryAnnihilation, annihShape)

	case ir.ProcessBrem:
		if n == 0 {
			st.emit(st.zeroRecord(ir.CategoryBrem, bremShape))
			return
		}
		st.spawn(ir.CategoryBrem, bremShape)

	case ir.ProcessRayleigh:
		if n != 0 {
			log.Error("rayleigh scattering should not generate secondaries", "secondaries", n)
		}
		st.emit(st.zeroRecord(ir.CategoryRayleigh, rayleighShape))

	case ir.ProcessElastic, ir.ProcessInelastic, ir.ProcessFission:
		cat := ir.CategoryFor(proc)
		if n == 0 {
			log.Debug("nuclear interaction without a recoil, thresholds are probably too high",
				"category", cat.Code(), "deposit", st.step.Deposit)
			st.emit(st.zeroRecord(cat, hadronShape))
			return
		}
		st.spawn(cat, hadronShape)

	case ir.ProcessCapture:
		if n == 0 {
			log.Debug("capture without secondaries", "deposit", st.step.Deposit)
			st.emit(st.zeroRecord(ir.CategoryCapture, captureShape))
			return
		}
		st.spawn(ir.CategoryCapture, captureShape)

	case ir.ProcessDecay:
		if n == 0 {
			if st.step.Particle != ir.ParticleTriton {
				log.Debug("decay without secondaries", "particle", st.step.Particle.String())
			}
			st.emit(st.zeroRecord(ir.CategoryDecay, decayShape))
			return
		}
		st.spawn(ir.CategoryDecay, decayShape)

	case ir.ProcessRadioactiveDecay:
		st.radioactiveDecay()

	case ir.ProcessIonization, ir.ProcessTransportation:
		if !st.b.cfg.StoreIonization {
			return
		}
		if n == 0 {
			if proc == ir.ProcessTransportation && st.step.Deposit <= ionizationDepositFloor {
				return
			}
			r := st.zeroRecord(ir.CategoryIonization, ionShape)
			r.Deposit = st.step.Deposit
			st.emit(r)
			return
		}
		sh := ionShape
		sh.rewrite = false
		st.spawn(ir.CategoryIonization, sh)
	}
}

// zeroRecord builds the single record of a step whose secondaries stayed
// below threshold. Rewriting shapes move the track id to the new record.
func (st *stepState) zeroRecord(cat ir.Category, sh shape) ir.InteractionRecord {
	id := st.b.ids.Next()
	if sh.rewrite {
		st.row.info.ID = id
	}
	r := st.record(cat, id, st.step.Post.Position)
	st.incoming(&r, sh)
	return r
}

// spawn emits one record per secondary and gives each secondary a fresh
// track information rooted at its record.
func (st *stepState) spawn(cat ir.Category, sh shape) {
	for _, i := range st.order(sh.reverse) {
		sec := st.step.Secondaries[i]
		id := st.b.ids.Next()
		if sh.rewrite {
			st.row.info.ID = id
		}
		st.b.tracks.Insert(sec.TrackID, ir.TrackInformation{ID: id, OriginID: id})
		st.assigned[i] = true

		pos := sec.Position
		if sh.atTrack {
			pos = st.step.Post.Position
		}
		r := st.record(cat, id, pos)
		st.incoming(&r, sh)
		st.outgoing(&r, sec, sh)
		st.emit(r)
	}
}

func (st *stepState) order(reverse bool) []int {
	n := len(st.step.Secondaries)
	idx := make([]int, n)
	for i := range idx {
		if reverse {
			idx[i] = n - 1 - i
		} else {
			idx[i] = i
		}
	}
	return idx
}

func (st *stepState) incoming(r *ir.InteractionRecord, sh shape) {
	r.InType = st.step.Particle
	if sh.inType != ir.ParticleNone {
		r.InType = sh.inType
	}
	if sh.inKinematics {
		r.InDirection = st.step.Pre.Direction
		r.InPolarization = st.step.Pre.Polarization
		r.InEnergy = st.step.Pre.KineticEnergy
	}
}

func (st *stepState) outgoing(r *ir.InteractionRecord, sec Secondary, sh shape) {
	r.OutType = sec.Particle
	r.OutDirection = sec.Direction
	if !sh.dropOutPolarization {
		r.OutPolarization = sec.Polarization
	}
	r.OutEnergy = sec.KineticEnergy
}

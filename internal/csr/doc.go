// Package csr reconstructs the scattering order of the interaction sites of
// one readout event.
//
// Compton sequence reconstruction (CSR) tests every ordering of up to
// MaxNInteractions sites against Compton kinematics. For each inner site
// the scatter angle implied by the measured energies is compared with the
// angle between the incoming and outgoing segments. The ordering with the
// smallest quality factor wins. Two-site events skip the search and are
// decided in closed form (see analyzeDualHit).
//
// Energies are in keV and positions in cm.
package csr

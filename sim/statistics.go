package sim

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// Statistics are the magnetic observables of a spin state, where qubit |0> is spin up.
type Statistics struct {
	Magnetization  float64
	BinderCumulant float64
}

// SpinStatistics returns the magnetization and the Binder cumulant of a state of numSpins spins.
// The magnetization of each basis state is taken in the basis where the majority of spins are up.
func SpinStatistics(numSpins int, state []complex128) (Statistics, error) {
	if len(state) != 1<<numSpins {
		return Statistics{}, errors.Errorf("%d %d", len(state), 1<<numSpins)
	}
	var stats Statistics
	var totalProb float64
	var m2 float64
	for i, amplitude := range state {
		probability := real(amplitude)*real(amplitude) + imag(amplitude)*imag(amplitude)

		downs := bits.OnesCount(uint(i))
		basisM := math.Abs(float64(numSpins - 2*downs))

		totalProb += probability
		stats.Magnetization += probability * basisM
		stats.BinderCumulant += probability * math.Pow(basisM, 4)
		m2 += probability * math.Pow(basisM, 2)
	}
	if math.Abs(totalProb-1) > 1e-3 {
		return Statistics{}, errors.Errorf("%f", totalProb)
	}

	stats.Magnetization /= float64(numSpins)
	stats.BinderCumulant /= (m2 * m2)
	stats.BinderCumulant = 1 - stats.BinderCumulant/3
	return stats, nil
}

package synth

// VarianceSeed seeds the component tolerance table of a default pool.
const VarianceSeed = 1984

// Variance is the fixed deviation of one voice from nominal component values.
type Variance struct {
	CutoffScale    float64
	ResonanceScale float64
	EnvTimeScale   float64
	PWOffset       float64
}

// NominalVariance leaves every parameter untouched.
var NominalVariance = Variance{CutoffScale: 1, ResonanceScale: 1, EnvTimeScale: 1}

// NewVariances draws n variance records from a generator seeded with seed.
// Equal seeds always produce equal tables.
func NewVariances(seed int64, n int) []Variance {
	rng := NewRandom(seed)
	vs := make([]Variance, n)
	for i := range vs {
		vs[i] = Variance{
			CutoffScale:    1 + (rng.NextFloat()*0.03 - 0.015),
			ResonanceScale: 1 + (rng.NextFloat()*0.10 - 0.05),
			EnvTimeScale:   1 + (rng.NextFloat()*0.04 - 0.02),
			PWOffset:       rng.NextFloat()*0.04 - 0.02,
		}
	}
	return vs
}

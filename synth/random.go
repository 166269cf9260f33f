package synth

// Random is a 48-bit linear congruential generator. A given seed produces the
// same stream on every platform, which keeps voice variance reproducible.
type Random struct {
	seed int64
}

func NewRandom(seed int64) Random {
	return Random{seed: seed}
}

func (r *Random) SetSeed(seed int64) {
	r.seed = seed
}

func (r *Random) NextInt() int32 {
	r.seed = int64((uint64(r.seed)*0x5deece66d + 11) & 0xffffffffffff)
	return int32(r.seed >> 16)
}

// NextFloat returns a value in [0, 1).
func (r *Random) NextFloat() float64 {
	return float64(uint32(r.NextInt())) / (1 << 32)
}

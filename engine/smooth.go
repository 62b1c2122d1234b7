package engine

// smootherMinAlpha keeps the stages moving at the bottom of the control
// range.
const smootherMinAlpha = 64

// Smoother is a two-stage integer one-pole lowpass over device-domain
// samples, the reference worker for the dual-lane pipeline. The 12-bit
// param is the per-stage coefficient: higher values track faster, 4095
// is near-passthrough.
type Smoother struct {
	z1 int32
	z2 int32
}

// NewSmoother returns a smoother with cleared stages.
func NewSmoother() *Smoother {
	return &Smoother{}
}

// NextSample advances both stages toward x and returns the smoothed
// sample clamped to the device range.
func (s *Smoother) NextSample(x int16, param uint16) int16 {
	alpha := int32(param)
	if alpha > 4095 {
		alpha = 4095
	}
	if alpha < smootherMinAlpha {
		alpha = smootherMinAlpha
	}

	// Both stages run in Q12: z += (x - z)*alpha.
	xq := int32(x) << 12
	s.z1 += int32((int64(xq-s.z1) * int64(alpha)) >> 12)
	s.z2 += int32((int64(s.z1-s.z2) * int64(alpha)) >> 12)

	y := s.z2 >> 12
	if y < -2048 {
		y = -2048
	}
	if y > 2047 {
		y = 2047
	}
	return int16(y)
}

// Reset clears both stages.
func (s *Smoother) Reset() {
	s.z1 = 0
	s.z2 = 0
}

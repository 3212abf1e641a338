package network

// Pattern is a cyclic sequence of demand/setting multipliers indexed by the
// current period. FactorAt is well-defined at any simulation time: once
// the sequence is exhausted it wraps, so a pattern never "runs out".
type Pattern struct {
	ID         string
	Factors    []float64
	PeriodSecs float64 // duration of one factor slot, seconds
}

// FactorAt returns the multiplier in effect at elapsed time t (seconds since
// the simulation start), wrapping around the pattern length.
func (p *Pattern) FactorAt(t float64) float64 {
	if len(p.Factors) == 0 {
		return 1.0
	}
	if p.PeriodSecs <= 0 {
		return p.Factors[0]
	}
	idx := int(t/p.PeriodSecs) % len(p.Factors)
	if idx < 0 {
		idx += len(p.Factors)
	}
	return p.Factors[idx]
}

// NextBoundary returns the smallest elapsed time strictly after t at which
// FactorAt's result would change, used by the time-stepping engine (§4.6) to
// bound dt to the next pattern period.
func (p *Pattern) NextBoundary(t float64) float64 {
	if len(p.Factors) <= 1 || p.PeriodSecs <= 0 {
		return posInf
	}
	period := p.PeriodSecs
	n := float64(len(p.Factors))
	cycleLen := period * n
	within := mod(t, cycleLen)
	slot := within / period
	nextSlotStart := (float64(int(slot)+1)) * period
	return t + (nextSlotStart - within)
}

const posInf = 1e300

func mod(a, b float64) float64 {
	m := a - float64(int(a/b))*b
	if m < 0 {
		m += b
	}
	return m
}

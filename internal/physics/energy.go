package physics

// KineticEnergy returns the sum of ½mv² over all particles.
func KineticEnergy(s *System) float64 {
	ke := 0.0
	for _, p := range s.Particles {
		ke += 0.5 * p.Mass * NormSq(p.Vel)
	}
	return ke
}

// Momentum returns the total linear momentum Σ m·v.
func Momentum(s *System) Vec3 {
	var total Vec3
	for _, p := range s.Particles {
		total = total.Add(p.Vel.Mul(p.Mass))
	}
	return total
}

// MomentumScale returns Σ m·|v|, the natural scale for judging momentum drift.
func MomentumScale(s *System) float64 {
	scale := 0.0
	for _, p := range s.Particles {
		scale += p.Mass * p.Vel.Len()
	}
	return scale
}

// AngularMomentum returns Σ r × (m·v) about the origin.
func AngularMomentum(s *System) Vec3 {
	var total Vec3
	for _, p := range s.Particles {
		total = total.Add(p.Pos.Cross(p.Vel.Mul(p.Mass)))
	}
	return total
}

// AngularMomentumScale returns Σ |r × m·v|, the scale for judging angular
// momentum drift.
func AngularMomentumScale(s *System) float64 {
	scale := 0.0
	for _, p := range s.Particles {
		scale += p.Pos.Cross(p.Vel.Mul(p.Mass)).Len()
	}
	return scale
}

// CenterOfMass returns the mass-weighted mean position. An empty system has
// its centre at the origin.
func CenterOfMass(s *System) Vec3 {
	m := s.TotalMass()
	if m == 0 {
		return Vec3{}
	}
	var sum Vec3
	for _, p := range s.Particles {
		sum = sum.Add(p.Pos.Mul(p.Mass))
	}
	return sum.Mul(1.0 / m)
}

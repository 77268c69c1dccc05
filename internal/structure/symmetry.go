package structure

import (
	"fmt"
	"math"
	"sort"
)

// PrimitiveStandard returns the primitive cell of the structure: the
// smallest cell that tiles the input under its internal translations. The
// returned lattice is Niggli-reduced so equivalent inputs standardize to the
// same cell. symprec is the fractional-coordinate tolerance for deciding
// that two sites coincide.
func (s *Structure) PrimitiveStandard(symprec float64) (*Structure, error) {
	if symprec <= 0 {
		return nil, fmt.Errorf("symprec must be positive, got %g", symprec)
	}

	translations := s.internalTranslations(symprec)
	primitive := s
	if len(translations) > 0 {
		reduced, err := s.reduceByTranslations(translations, symprec)
		if err != nil {
			return nil, err
		}
		primitive = reduced
	}

	lattice, err := primitive.Lattice.NiggliReduced(symprec)
	if err != nil {
		return nil, err
	}
	return primitive.rebase(lattice, symprec)
}

// ConventionalStandard returns a standardized full-symmetry cell: the
// Niggli-reduced form of the input cell with sites rebased into it. Unlike
// PrimitiveStandard it never shrinks the cell.
func (s *Structure) ConventionalStandard(symprec float64) (*Structure, error) {
	if symprec <= 0 {
		return nil, fmt.Errorf("symprec must be positive, got %g", symprec)
	}
	lattice, err := s.Lattice.NiggliReduced(symprec)
	if err != nil {
		return nil, err
	}
	return s.rebase(lattice, symprec)
}

// internalTranslations finds fractional translations (excluding identity)
// that map the structure onto itself.
func (s *Structure) internalTranslations(symprec float64) [][3]float64 {
	if len(s.Sites) < 2 {
		return nil
	}

	ref := s.Sites[0]
	var found [][3]float64
	for i := 1; i < len(s.Sites); i++ {
		if s.Sites[i].Species != ref.Species {
			continue
		}
		var t [3]float64
		for axis := 0; axis < 3; axis++ {
			t[axis] = wrapFrac(s.Sites[i].Frac[axis] - ref.Frac[axis])
		}
		if s.mapsOntoSelf(t, symprec) {
			found = append(found, t)
		}
	}
	return found
}

func (s *Structure) mapsOntoSelf(t [3]float64, symprec float64) bool {
	for _, site := range s.Sites {
		var shifted [3]float64
		for axis := 0; axis < 3; axis++ {
			shifted[axis] = wrapFrac(site.Frac[axis] + t[axis])
		}
		if !s.hasSiteAt(site.Species, shifted, symprec) {
			return false
		}
	}
	return true
}

func (s *Structure) hasSiteAt(species string, frac [3]float64, symprec float64) bool {
	for _, site := range s.Sites {
		if site.Species != species {
			continue
		}
		if fracDistance(site.Frac, frac) < symprec {
			return true
		}
	}
	return false
}

// reduceByTranslations shrinks the cell using the discovered internal
// translations. Candidate primitive vectors are the translations plus the
// original cell vectors; the triple with the smallest non-degenerate volume
// matching cellVolume/(1+len(translations)) wins.
func (s *Structure) reduceByTranslations(translations [][3]float64, symprec float64) (*Structure, error) {
	group := normalizeTranslationGroup(translations, symprec)
	order := len(group) + 1
	targetVolume := s.Volume() / float64(order)

	candidates := make([][3]float64, 0, len(group)+3)
	candidates = append(candidates, group...)
	candidates = append(candidates,
		[3]float64{1, 0, 0},
		[3]float64{0, 1, 0},
		[3]float64{0, 0, 1},
	)

	carts := make([][3]float64, len(candidates))
	for i, c := range candidates {
		carts[i] = s.Lattice.FractionalToCartesian(c)
	}

	best := Lattice{}
	bestFound := false
	volTol := math.Max(targetVolume*1e-4, 1e-8)
	for i := 0; i < len(carts); i++ {
		for j := i + 1; j < len(carts); j++ {
			for k := j + 1; k < len(carts); k++ {
				lattice := NewLattice([3][3]float64{carts[i], carts[j], carts[k]})
				vol := lattice.Volume()
				if math.Abs(vol-targetVolume) > volTol {
					continue
				}
				if !bestFound || latticeCompactness(lattice) < latticeCompactness(best) {
					best = lattice
					bestFound = true
				}
			}
		}
	}
	if !bestFound {
		// Translations found but no clean sub-cell; treat input as primitive.
		return s.Copy(), nil
	}
	return s.rebase(best, symprec)
}

// rebase expresses the structure's sites in the given lattice, wrapping into
// the unit cell and deduplicating coincident sites.
func (s *Structure) rebase(lattice Lattice, symprec float64) (*Structure, error) {
	var sites []Site
	for _, site := range s.Sites {
		cart := s.Lattice.FractionalToCartesian(site.Frac)
		frac, err := lattice.CartesianToFractional(cart)
		if err != nil {
			return nil, err
		}
		for axis := 0; axis < 3; axis++ {
			frac[axis] = wrapFrac(frac[axis])
		}
		duplicate := false
		for _, existing := range sites {
			if existing.Species == site.Species && fracDistance(existing.Frac, frac) < symprec {
				duplicate = true
				break
			}
		}
		if !duplicate {
			rebased := site
			rebased.Frac = frac
			sites = append(sites, rebased)
		}
	}
	sortSites(sites)
	return New(lattice, sites)
}

// normalizeTranslationGroup dedupes translations within tolerance.
func normalizeTranslationGroup(translations [][3]float64, symprec float64) [][3]float64 {
	var out [][3]float64
	for _, t := range translations {
		dup := false
		for _, existing := range out {
			if fracDistance(existing, t) < symprec {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

func latticeCompactness(l Lattice) float64 {
	lengths := l.Lengths()
	return lengths[0] + lengths[1] + lengths[2]
}

func sortSites(sites []Site) {
	sort.SliceStable(sites, func(i, j int) bool {
		if sites[i].Species != sites[j].Species {
			return sites[i].Species < sites[j].Species
		}
		for axis := 0; axis < 3; axis++ {
			if sites[i].Frac[axis] != sites[j].Frac[axis] {
				return sites[i].Frac[axis] < sites[j].Frac[axis]
			}
		}
		return false
	})
}

func wrapFrac(v float64) float64 {
	v -= math.Floor(v)
	if v >= 1 {
		v -= 1
	}
	if v < 0 {
		v += 1
	}
	return v
}

// fracDistance measures the periodic distance between two fractional
// coordinates, axis-wise shortest image.
func fracDistance(a, b [3]float64) float64 {
	sum := 0.0
	for axis := 0; axis < 3; axis++ {
		d := shortestImageDelta(a[axis] - b[axis])
		sum += d * d
	}
	return math.Sqrt(sum)
}

package structure

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MagmomProperty is the site property key carrying magnetic moments.
const MagmomProperty = "magmom"

// Site is one atom in a periodic structure, positioned fractionally.
type Site struct {
	Species    string             `json:"species"`
	Frac       [3]float64         `json:"abc"`
	Properties map[string]float64 `json:"properties,omitempty"`
}

// Structure is a periodic arrangement of sites on a lattice.
type Structure struct {
	Lattice Lattice `json:"lattice"`
	Sites   []Site  `json:"sites"`
}

// New builds a structure and validates its shape.
func New(lattice Lattice, sites []Site) (*Structure, error) {
	if len(sites) == 0 {
		return nil, fmt.Errorf("structure requires at least one site")
	}
	if lattice.Volume() <= 0 {
		return nil, fmt.Errorf("structure lattice is degenerate")
	}
	s := &Structure{Lattice: lattice, Sites: sites}
	return s, nil
}

// NumSites returns the number of sites.
func (s *Structure) NumSites() int {
	return len(s.Sites)
}

// Volume returns the cell volume in cubic angstroms.
func (s *Structure) Volume() float64 {
	return s.Lattice.Volume()
}

// Copy returns a deep copy of the structure.
func (s *Structure) Copy() *Structure {
	sites := make([]Site, len(s.Sites))
	for i, site := range s.Sites {
		sites[i] = site
		if site.Properties != nil {
			props := make(map[string]float64, len(site.Properties))
			for k, v := range site.Properties {
				props[k] = v
			}
			sites[i].Properties = props
		}
	}
	return &Structure{Lattice: s.Lattice, Sites: sites}
}

// Composition returns the per-species site counts.
func (s *Structure) Composition() map[string]int {
	counts := map[string]int{}
	for _, site := range s.Sites {
		counts[site.Species]++
	}
	return counts
}

// Formula returns the reduced chemical formula with species in alphabetical
// order, e.g. "Fe2O3".
func (s *Structure) Formula() string {
	counts := s.Composition()
	species := make([]string, 0, len(counts))
	for sp := range counts {
		species = append(species, sp)
	}
	sort.Strings(species)

	divisor := 0
	for _, sp := range species {
		divisor = gcd(divisor, counts[sp])
	}
	if divisor == 0 {
		divisor = 1
	}

	var builder strings.Builder
	for _, sp := range species {
		builder.WriteString(sp)
		if n := counts[sp] / divisor; n > 1 {
			fmt.Fprintf(&builder, "%d", n)
		}
	}
	return builder.String()
}

// HasSiteProperty reports whether any site carries the named property.
func (s *Structure) HasSiteProperty(name string) bool {
	for _, site := range s.Sites {
		if _, ok := site.Properties[name]; ok {
			return true
		}
	}
	return false
}

// RemoveSiteProperty strips the named property from every site.
func (s *Structure) RemoveSiteProperty(name string) {
	for i := range s.Sites {
		delete(s.Sites[i].Properties, name)
	}
}

// Interpolate produces one structure per image value, linearly mixing the
// fractional coordinates between the receiver (0.0) and end (1.0). Image
// values outside [0, 1] extrapolate, which distortion scans rely on. Both
// structures must have identical site counts and species order.
func (s *Structure) Interpolate(end *Structure, images []float64) ([]*Structure, error) {
	if end == nil {
		return nil, fmt.Errorf("end structure is nil")
	}
	if len(s.Sites) != len(end.Sites) {
		return nil, fmt.Errorf("site count mismatch: %d vs %d", len(s.Sites), len(end.Sites))
	}
	for i := range s.Sites {
		if s.Sites[i].Species != end.Sites[i].Species {
			return nil, fmt.Errorf("species mismatch at site %d: %s vs %s", i, s.Sites[i].Species, end.Sites[i].Species)
		}
	}

	out := make([]*Structure, 0, len(images))
	for _, x := range images {
		img := s.Copy()
		for i := range img.Sites {
			for axis := 0; axis < 3; axis++ {
				delta := shortestImageDelta(end.Sites[i].Frac[axis] - s.Sites[i].Frac[axis])
				img.Sites[i].Frac[axis] = s.Sites[i].Frac[axis] + x*delta
			}
			// Lattice vectors interpolate linearly as well.
			for r := 0; r < 3; r++ {
				for c := 0; c < 3; c++ {
					img.Lattice.Vectors[r][c] = s.Lattice.Vectors[r][c] + x*(end.Lattice.Vectors[r][c]-s.Lattice.Vectors[r][c])
				}
			}
		}
		out = append(out, img)
	}
	return out, nil
}

// shortestImageDelta maps a fractional delta into (-0.5, 0.5] so
// interpolation takes the short way around periodic boundaries.
func shortestImageDelta(d float64) float64 {
	d -= math.Round(d)
	return d
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

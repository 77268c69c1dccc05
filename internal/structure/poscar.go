package structure

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WritePoscar renders the structure in VASP 5 POSCAR format with direct
// coordinates. The comment line carries the reduced formula.
func (s *Structure) WritePoscar(w io.Writer) error {
	species, counts := s.speciesOrder()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Formula())
	b.WriteString("1.0\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, " %20.16f %20.16f %20.16f\n",
			s.Lattice.Vectors[i][0], s.Lattice.Vectors[i][1], s.Lattice.Vectors[i][2])
	}
	b.WriteString(strings.Join(species, " ") + "\n")
	nums := make([]string, len(counts))
	for i, n := range counts {
		nums[i] = strconv.Itoa(n)
	}
	b.WriteString(strings.Join(nums, " ") + "\n")
	b.WriteString("Direct\n")
	for _, sp := range species {
		for _, site := range s.Sites {
			if site.Species != sp {
				continue
			}
			fmt.Fprintf(&b, " %18.16f %18.16f %18.16f %s\n",
				site.Frac[0], site.Frac[1], site.Frac[2], site.Species)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Poscar returns the POSCAR rendering as a string.
func (s *Structure) Poscar() string {
	var b strings.Builder
	// strings.Builder writes cannot fail.
	_ = s.WritePoscar(&b)
	return b.String()
}

// speciesOrder groups sites by species in first-appearance order, the
// grouping POSCAR requires.
func (s *Structure) speciesOrder() ([]string, []int) {
	var species []string
	counts := map[string]int{}
	for _, site := range s.Sites {
		if _, seen := counts[site.Species]; !seen {
			species = append(species, site.Species)
		}
		counts[site.Species]++
	}
	out := make([]int, len(species))
	for i, sp := range species {
		out[i] = counts[sp]
	}
	return species, out
}

// ReadPoscar parses a VASP 5 POSCAR. Both direct and cartesian coordinate
// blocks are accepted; selective dynamics flags are skipped.
func ReadPoscar(r io.Reader) (*Structure, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading POSCAR: %w", err)
	}
	if len(lines) < 8 {
		return nil, fmt.Errorf("POSCAR too short: %d lines", len(lines))
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("POSCAR scale factor: %w", err)
	}

	var vectors [3][3]float64
	for i := 0; i < 3; i++ {
		fields := strings.Fields(lines[2+i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("POSCAR lattice line %d malformed", 3+i)
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("POSCAR lattice line %d: %w", 3+i, err)
			}
			vectors[i][j] = v * scale
		}
	}
	lattice := NewLattice(vectors)

	species := strings.Fields(lines[5])
	if len(species) == 0 {
		return nil, fmt.Errorf("POSCAR missing species line (VASP 5 format required)")
	}
	if _, err := strconv.Atoi(species[0]); err == nil {
		return nil, fmt.Errorf("POSCAR missing species line (VASP 5 format required)")
	}
	countFields := strings.Fields(lines[6])
	if len(countFields) != len(species) {
		return nil, fmt.Errorf("POSCAR species/count mismatch: %d vs %d", len(species), len(countFields))
	}
	counts := make([]int, len(countFields))
	total := 0
	for i, f := range countFields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("POSCAR species count: %w", err)
		}
		counts[i] = n
		total += n
	}

	coordLine := 7
	mode := strings.ToLower(strings.TrimSpace(lines[coordLine]))
	if strings.HasPrefix(mode, "s") {
		// Selective dynamics header; coordinate mode follows.
		coordLine++
		if coordLine >= len(lines) {
			return nil, fmt.Errorf("POSCAR truncated after selective dynamics line")
		}
		mode = strings.ToLower(strings.TrimSpace(lines[coordLine]))
	}
	cartesian := strings.HasPrefix(mode, "c") || strings.HasPrefix(mode, "k")

	if len(lines) < coordLine+1+total {
		return nil, fmt.Errorf("POSCAR has %d coordinate lines, expected %d", len(lines)-coordLine-1, total)
	}

	sites := make([]Site, 0, total)
	line := coordLine + 1
	for i, sp := range species {
		for n := 0; n < counts[i]; n++ {
			fields := strings.Fields(lines[line])
			if len(fields) < 3 {
				return nil, fmt.Errorf("POSCAR coordinate line %d malformed", line+1)
			}
			var pos [3]float64
			for j := 0; j < 3; j++ {
				v, err := strconv.ParseFloat(fields[j], 64)
				if err != nil {
					return nil, fmt.Errorf("POSCAR coordinate line %d: %w", line+1, err)
				}
				pos[j] = v
			}
			if cartesian {
				frac, err := lattice.CartesianToFractional([3]float64{pos[0] * scale, pos[1] * scale, pos[2] * scale})
				if err != nil {
					return nil, err
				}
				pos = frac
			}
			sites = append(sites, Site{Species: sp, Frac: pos})
			line++
		}
	}

	return New(lattice, sites)
}

// ReadPoscarString parses POSCAR content held in a string.
func ReadPoscarString(content string) (*Structure, error) {
	return ReadPoscar(strings.NewReader(content))
}

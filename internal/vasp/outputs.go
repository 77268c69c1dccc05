package vasp

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"atomflow/internal/fileutil"
	"atomflow/internal/schemas"
	"atomflow/internal/services"
	"atomflow/internal/structure"
)

// oszicarSummary holds what the OSZICAR ionic/electronic step log yields.
type oszicarSummary struct {
	Energy         float64
	IonicSteps     int
	ElectronicIter int
}

// outcarSummary holds what the OUTCAR run log yields.
type outcarSummary struct {
	Forces      [][3]float64
	Stress      [3][3]float64
	ElapsedTime float64
	Cores       int
	Finished    bool
}

// ParseDirectory reads a finished VASP calculation directory into a task
// document. Output files may be plain or gzipped.
func ParseDirectory(dir string) (*schemas.TaskDoc, error) {
	oszicar, err := parseOszicar(filepath.Join(dir, "OSZICAR"))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "vasp", "parse outputs", "OSZICAR unreadable", err)
	}
	outcar, err := parseOutcar(filepath.Join(dir, "OUTCAR"))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "vasp", "parse outputs", "OUTCAR unreadable", err)
	}

	output, err := readStructureFile(dir, "CONTCAR", "POSCAR")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "vasp", "parse outputs", "no output structure", err)
	}
	input, err := readStructureFile(dir, "POSCAR")
	if err != nil {
		input = output
	}

	state := schemas.StateFailed
	if outcar.Finished {
		state = schemas.StateSuccessful
	}

	doc := &schemas.TaskDoc{
		UUID:    uuid.New(),
		DirName: dir,
		State:   state,
		Formula: output.Formula(),
		Chemsys: schemas.Chemsys(output),
		Input: schemas.InputSummary{
			Structure:  input,
			Parameters: readIncarParameters(dir),
		},
		Output: schemas.OutputSummary{
			Structure:     output,
			Energy:        oszicar.Energy,
			EnergyPerAtom: oszicar.Energy / float64(output.NumSites()),
			Forces:        outcar.Forces,
			Stress:        outcar.Stress,
		},
		RunStats: schemas.RunStats{
			ElapsedTime:    outcar.ElapsedTime,
			Cores:          outcar.Cores,
			IonicSteps:     oszicar.IonicSteps,
			ElectronicIter: oszicar.ElectronicIter,
		},
		CompletedAt: time.Now().UTC(),
	}
	return doc, doc.Validate()
}

func readStructureFile(dir string, names ...string) (*structure.Structure, error) {
	var lastErr error
	for _, name := range names {
		path := filepath.Join(dir, name)
		if !fileutil.Exists(path) {
			lastErr = fmt.Errorf("%s not found", name)
			continue
		}
		reader, err := fileutil.Open(path)
		if err != nil {
			lastErr = err
			continue
		}
		s, err := structure.ReadPoscar(reader)
		_ = reader.Close()
		if err != nil {
			lastErr = fmt.Errorf("parse %s: %w", name, err)
			continue
		}
		return s, nil
	}
	return nil, lastErr
}

// parseOszicar extracts the final total energy and step counts. Ionic steps
// look like "1 F= -.13876E+02 E0= -.13876E+02 ...", electronic iterations
// like "DAV:   3   ...".
func parseOszicar(path string) (oszicarSummary, error) {
	var summary oszicarSummary
	reader, err := fileutil.Open(path)
	if err != nil {
		return summary, err
	}
	defer reader.Close()

	sawEnergy := false
	electronic := 0
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch {
		case strings.Contains(line, "E0="):
			for i, f := range fields {
				if f == "E0=" && i+1 < len(fields) {
					v, err := strconv.ParseFloat(fields[i+1], 64)
					if err != nil {
						return summary, fmt.Errorf("bad E0 value %q: %w", fields[i+1], err)
					}
					summary.Energy = v
					sawEnergy = true
				}
			}
			summary.IonicSteps++
			summary.ElectronicIter = electronic
			electronic = 0
		case len(fields) >= 2 && (strings.HasPrefix(fields[0], "DAV:") || strings.HasPrefix(fields[0], "RMM:")):
			if n, err := strconv.Atoi(fields[1]); err == nil {
				electronic = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, err
	}
	if !sawEnergy {
		return summary, fmt.Errorf("no E0 energy line found")
	}
	return summary, nil
}

// parseOutcar extracts forces, stress and run stats from the last ionic step.
func parseOutcar(path string) (outcarSummary, error) {
	var summary outcarSummary
	reader, err := fileutil.Open(path)
	if err != nil {
		return summary, err
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "TOTAL-FORCE (eV/Angst)"):
			forces, err := scanForces(scanner)
			if err != nil {
				return summary, err
			}
			summary.Forces = forces
		case strings.Contains(line, "in kB"):
			if stress, ok := parseStressLine(line); ok {
				summary.Stress = stress
			}
		case strings.Contains(line, "total cores"):
			fields := strings.Fields(line)
			for i, f := range fields {
				if f == "total" && i > 0 {
					if n, err := strconv.Atoi(fields[i-1]); err == nil {
						summary.Cores = n
					}
				}
			}
		case strings.Contains(line, "Elapsed time (sec):"):
			fields := strings.Fields(line)
			if len(fields) > 0 {
				if v, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
					summary.ElapsedTime = v
				}
			}
		case strings.Contains(line, "General timing and accounting informations"):
			summary.Finished = true
		}
	}
	return summary, scanner.Err()
}

// scanForces reads the per-atom force table following a TOTAL-FORCE header.
// The table is a dashed rule, then "x y z fx fy fz" rows, then another rule.
func scanForces(scanner *bufio.Scanner) ([][3]float64, error) {
	if !scanner.Scan() {
		return nil, fmt.Errorf("truncated force block")
	}
	var forces [][3]float64
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "---") {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return nil, fmt.Errorf("malformed force row %q", line)
		}
		var f [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[3+i], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed force row %q: %w", line, err)
			}
			f[i] = v
		}
		forces = append(forces, f)
	}
	return forces, nil
}

// parseStressLine reads the "in kB  XX YY ZZ XY YZ ZX" Voigt stress line
// into a full tensor.
func parseStressLine(line string) ([3][3]float64, bool) {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return [3][3]float64{}, false
	}
	var voigt [6]float64
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(fields[len(fields)-6+i], 64)
		if err != nil {
			return [3][3]float64{}, false
		}
		voigt[i] = v
	}
	return [3][3]float64{
		{voigt[0], voigt[3], voigt[5]},
		{voigt[3], voigt[1], voigt[4]},
		{voigt[5], voigt[4], voigt[2]},
	}, true
}

// readIncarParameters loads the INCAR key/value pairs as strings, for the
// input summary. A missing INCAR yields no parameters rather than an error.
func readIncarParameters(dir string) map[string]any {
	reader, err := fileutil.Open(filepath.Join(dir, "INCAR"))
	if err != nil {
		return nil
	}
	defer reader.Close()

	params := map[string]any{}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

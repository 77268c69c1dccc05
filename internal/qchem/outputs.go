package qchem

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

// OutputFileName is the main Q-Chem output file. Multi-step jobs append
// suffixes like mol.qout.opt_0.
const OutputFileName = "mol.qout"

type qoutSummary struct {
	Energy    float64
	Species   []string
	Coords    [][3]float64
	Charge    int
	Spin      int
	Finished  bool
	JobTime   float64
	SCFFailed bool
}

// ParseDirectory reads a finished Q-Chem calculation directory into a task
// document. When several mol.qout.* files exist the unsuffixed one wins.
func ParseDirectory(dir string) (*schemas.TaskDoc, error) {
	path := filepath.Join(dir, OutputFileName)
	if !fileutil.Exists(path) {
		return nil, services.Wrap(services.ErrValidation, "qchem", "parse outputs",
			OutputFileName+" not found", nil)
	}

	summary, err := parseQout(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "qchem", "parse outputs",
			OutputFileName+" unreadable", err)
	}

	state := schemas.StateFailed
	if summary.Finished && !summary.SCFFailed {
		state = schemas.StateSuccessful
	}

	doc := &schemas.TaskDoc{
		UUID:    uuid.New(),
		DirName: dir,
		State:   state,
		RunStats: schemas.RunStats{
			ElapsedTime: summary.JobTime,
		},
		CompletedAt: time.Now().UTC(),
	}
	doc.Output.Energy = summary.Energy

	if len(summary.Species) > 0 {
		mol, err := buildMolecule(summary)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "qchem", "parse outputs",
				"malformed geometry block", err)
		}
		doc.Output.Molecule = mol
		doc.Input.Molecule = mol
		doc.Formula = mol.Formula()
	}
	return doc, doc.Validate()
}

func buildMolecule(summary *qoutSummary) (*structure.Molecule, error) {
	spin := summary.Spin
	if spin < 1 {
		spin = 1
	}
	return structure.NewMolecule(summary.Species, summary.Coords, summary.Charge, spin)
}

// parseQout scans one Q-Chem output file. The last geometry block and
// energy line win, matching how multi-step optimizations append output.
func parseQout(path string) (*qoutSummary, error) {
	reader, err := fileutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	summary := &qoutSummary{Spin: 1}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "Total energy in the final basis set"):
			fields := strings.Fields(line)
			if v, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
				summary.Energy = v
			}
		case strings.Contains(line, "Final energy is"):
			fields := strings.Fields(line)
			if v, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
				summary.Energy = v
			}
		case strings.Contains(line, "$molecule"):
			if err := scanMoleculeBlock(scanner, summary); err != nil {
				return nil, err
			}
		case strings.Contains(line, "Standard Nuclear Orientation"):
			if err := scanOrientationBlock(scanner, summary); err != nil {
				return nil, err
			}
		case strings.Contains(line, "SCF failed to converge"):
			summary.SCFFailed = true
		case strings.Contains(line, "Total job time:"):
			summary.JobTime = parseJobTime(line)
		case strings.Contains(line, "Thank You very much for using Q-Chem"):
			summary.Finished = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if summary.Energy == 0 && len(summary.Species) == 0 {
		return nil, fmt.Errorf("no energy or geometry found")
	}
	return summary, nil
}

// scanMoleculeBlock reads the echoed input molecule: a charge/spin line then
// atom lines until $end.
func scanMoleculeBlock(scanner *bufio.Scanner, summary *qoutSummary) error {
	if !scanner.Scan() {
		return fmt.Errorf("truncated $molecule block")
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) >= 2 {
		if c, err := strconv.Atoi(fields[0]); err == nil {
			summary.Charge = c
		}
		if s, err := strconv.Atoi(fields[1]); err == nil {
			summary.Spin = s
		}
	}
	var species []string
	var coords [][3]float64
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "$end") {
			break
		}
		atomFields := strings.Fields(line)
		if len(atomFields) < 4 {
			continue
		}
		var xyz [3]float64
		ok := true
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(atomFields[1+i], 64)
			if err != nil {
				ok = false
				break
			}
			xyz[i] = v
		}
		if !ok {
			continue
		}
		species = append(species, atomFields[0])
		coords = append(coords, xyz)
	}
	if len(species) > 0 {
		summary.Species = species
		summary.Coords = coords
	}
	return nil
}

// scanOrientationBlock reads a geometry table: two header lines, then
// "index element x y z" rows until the dashed rule.
func scanOrientationBlock(scanner *bufio.Scanner, summary *qoutSummary) error {
	for i := 0; i < 2; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("truncated orientation block")
		}
	}
	var species []string
	var coords [][3]float64
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "---") {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			break
		}
		var xyz [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[2+i], 64)
			if err != nil {
				return fmt.Errorf("malformed orientation row %q: %w", line, err)
			}
			xyz[i] = v
		}
		species = append(species, fields[1])
		coords = append(coords, xyz)
	}
	if len(species) > 0 {
		summary.Species = species
		summary.Coords = coords
	}
	return nil
}

func parseJobTime(line string) float64 {
	// "Total job time:  53.31s(wall), 202.77s(cpu)"
	_, rest, found := strings.Cut(line, "Total job time:")
	if !found {
		return 0
	}
	rest = strings.TrimSpace(rest)
	if idx := strings.Index(rest, "s(wall)"); idx > 0 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(rest[:idx]), 64); err == nil {
			return v
		}
	}
	return 0
}

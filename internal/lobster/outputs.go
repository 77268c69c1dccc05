package lobster

import (
	"bufio"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"atomflow/internal/fileutil"
	"atomflow/internal/schemas"
	"atomflow/internal/services"
	"atomflow/internal/structure"
)

// OutputFileName is the run log every LOBSTER calculation writes.
const OutputFileName = "lobsterout"

// ParseDirectory reads a finished LOBSTER calculation directory into a
// bonding-analysis document. Only lobsterout is required; the per-property
// files fill in whatever sections exist.
func ParseDirectory(dir string) (*schemas.LobsterTaskDoc, error) {
	if !fileutil.Exists(filepath.Join(dir, OutputFileName)) {
		return nil, services.Wrap(services.ErrValidation, "lobster", "parse outputs",
			OutputFileName+" not found", nil)
	}

	doc := &schemas.LobsterTaskDoc{DirName: dir, State: schemas.StateFailed}

	finished, err := parseLobsterout(filepath.Join(dir, OutputFileName), &doc.Lobsterout)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "lobster", "parse outputs",
			OutputFileName+" unreadable", err)
	}
	if finished {
		doc.State = schemas.StateSuccessful
	}

	if err := parseLobsterin(filepath.Join(dir, InputFileName), &doc.Lobsterin); err != nil {
		return nil, err
	}

	if s, err := readStructure(dir); err == nil && s != nil {
		doc.Structure = s
		doc.Chemsys = schemas.Chemsys(s)
	}

	if charges, err := parseChargeFile(filepath.Join(dir, "CHARGE.lobster")); err != nil {
		return nil, err
	} else if charges != nil {
		doc.Charges = charges
	}

	if err := parseMadelungFile(filepath.Join(dir, "MadelungEnergies.lobster"), doc); err != nil {
		return nil, err
	}
	if err := parseSitePotentialsFile(filepath.Join(dir, "SitePotentials.lobster"), doc); err != nil {
		return nil, err
	}

	if pops, err := parseGrossPopulations(filepath.Join(dir, "GROSSPOP.lobster")); err != nil {
		return nil, err
	} else if pops != nil {
		doc.GrossPopulations = pops
	}

	for _, spec := range []struct {
		file   string
		target **schemas.StrongestBonds
	}{
		{"ICOHPLIST.lobster", &doc.StrongestBondsICOHP},
		{"ICOOPLIST.lobster", &doc.StrongestBondsICOOP},
		{"ICOBILIST.lobster", &doc.StrongestBondsICOBI},
	} {
		bonds, err := parseStrongestBonds(filepath.Join(dir, spec.file))
		if err != nil {
			return nil, err
		}
		*spec.target = bonds
	}

	return doc, doc.Validate()
}

func readStructure(dir string) (*structure.Structure, error) {
	for _, name := range []string{"CONTCAR", "POSCAR"} {
		path := filepath.Join(dir, name)
		if !fileutil.Exists(path) {
			continue
		}
		reader, err := fileutil.Open(path)
		if err != nil {
			return nil, err
		}
		s, err := structure.ReadPoscar(reader)
		reader.Close()
		return s, err
	}
	return nil, nil
}

// parseLobsterout reads the run log for the basis actually used, the charge
// spilling, and which property files the run wrote.
func parseLobsterout(path string, summary *schemas.LobsteroutSummary) (bool, error) {
	reader, err := fileutil.Open(path)
	if err != nil {
		return false, err
	}
	defer reader.Close()

	finished := false
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "basis functions for"):
			// "basis functions for Ga (list): 4s 4p"
			if _, rest, found := strings.Cut(line, "):"); found {
				summary.Basis = append(summary.Basis, strings.TrimSpace(rest))
			}
		case strings.HasPrefix(line, "abs. charge spilling:"):
			fields := strings.Fields(line)
			raw := strings.TrimSuffix(fields[len(fields)-1], "%")
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				summary.ChargeSpilling = append(summary.ChargeSpilling, v/100)
			}
		case strings.Contains(line, "writing COHPCAR.lobster"):
			summary.HasCOHPCAR = true
		case strings.Contains(line, "writing COOPCAR.lobster"):
			summary.HasCOOPCAR = true
		case strings.Contains(line, "writing COBICAR.lobster"):
			summary.HasCOBICAR = true
		case strings.Contains(line, "writing CHARGE.lobster"):
			summary.HasChargeFile = true
		case strings.Contains(line, "writing MadelungEnergies.lobster"):
			summary.HasMadelung = true
		case strings.Contains(line, "finished in"):
			finished = true
		}
	}
	return finished, scanner.Err()
}

func parseLobsterin(path string, summary *schemas.LobsterinSummary) error {
	if !fileutil.Exists(path) {
		return nil
	}
	reader, err := fileutil.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "cohpstartenergy":
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				summary.COHPStartEnergy = v
			}
		case "cohpendenergy":
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				summary.COHPEndEnergy = v
			}
		case "basisfunctions":
			summary.BasisFunctions = append(summary.BasisFunctions, strings.Join(fields[1:], " "))
		}
	}
	return scanner.Err()
}

// parseChargeFile reads CHARGE.lobster rows "index element Mulliken Loewdin"
// into per-scheme charge slices.
func parseChargeFile(path string) (map[string][]float64, error) {
	if !fileutil.Exists(path) {
		return nil, nil
	}
	reader, err := fileutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	charges := map[string][]float64{}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		mull, err1 := strconv.ParseFloat(fields[2], 64)
		loew, err2 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		charges["Mulliken"] = append(charges["Mulliken"], mull)
		charges["Loewdin"] = append(charges["Loewdin"], loew)
	}
	if len(charges) == 0 {
		return nil, scanner.Err()
	}
	return charges, scanner.Err()
}

// parseMadelungFile reads the single data row of MadelungEnergies.lobster:
// Mulliken energy, Loewdin energy, Ewald splitting parameter.
func parseMadelungFile(path string, doc *schemas.LobsterTaskDoc) error {
	if !fileutil.Exists(path) {
		return nil
	}
	reader, err := fileutil.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mull, err1 := strconv.ParseFloat(fields[0], 64)
		loew, err2 := strconv.ParseFloat(fields[1], 64)
		ewald, err3 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		doc.MadelungEnergies = map[string]float64{"Mulliken": mull, "Loewdin": loew}
		doc.EwaldSplitting = ewald
	}
	return scanner.Err()
}

// parseSitePotentialsFile reads SitePotentials.lobster rows
// "index element Mulliken Loewdin" plus the trailing Ewald splitting line.
func parseSitePotentialsFile(path string, doc *schemas.LobsterTaskDoc) error {
	if !fileutil.Exists(path) {
		return nil
	}
	reader, err := fileutil.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	potentials := map[string][]float64{}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "Ewald splitting parameter:") {
			fields := strings.Fields(line)
			if v, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
				doc.EwaldSplitting = v
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		mull, err1 := strconv.ParseFloat(fields[2], 64)
		loew, err2 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		potentials["Mulliken"] = append(potentials["Mulliken"], mull)
		potentials["Loewdin"] = append(potentials["Loewdin"], loew)
	}
	if len(potentials) > 0 {
		doc.SitePotentials = potentials
	}
	return scanner.Err()
}

// parseGrossPopulations reads GROSSPOP.lobster. A row starting with an atom
// index opens a new site; the following orbital rows carry Mulliken and
// Loewdin populations, including the "total" row.
func parseGrossPopulations(path string) ([]schemas.GrossPopulation, error) {
	if !fileutil.Exists(path) {
		return nil, nil
	}
	reader, err := fileutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var pops []schemas.GrossPopulation
	var current *schemas.GrossPopulation
	addOrbital := func(orbital string, mull, loew float64) {
		if current == nil {
			return
		}
		current.Mulliken[orbital] = mull
		current.Loewdin[orbital] = loew
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err == nil && len(fields) >= 2 {
			pops = append(pops, schemas.GrossPopulation{
				Element:  fields[1],
				Mulliken: map[string]float64{},
				Loewdin:  map[string]float64{},
			})
			current = &pops[len(pops)-1]
			if len(fields) >= 5 {
				if mull, err1 := strconv.ParseFloat(fields[3], 64); err1 == nil {
					if loew, err2 := strconv.ParseFloat(fields[4], 64); err2 == nil {
						addOrbital(fields[2], mull, loew)
					}
				}
			}
			continue
		}
		if len(fields) >= 3 {
			mull, err1 := strconv.ParseFloat(fields[1], 64)
			loew, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 == nil && err2 == nil {
				addOrbital(fields[0], mull, loew)
			}
		}
	}
	return pops, scanner.Err()
}

// parseStrongestBonds reads an ICOHPLIST/ICOOPLIST/ICOBILIST file and keeps,
// for each element pair, the interaction with the largest magnitude.
func parseStrongestBonds(path string) (*schemas.StrongestBonds, error) {
	if !fileutil.Exists(path) {
		return nil, nil
	}
	reader, err := fileutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	bonds, err := strongestBondRows(reader)
	if err != nil {
		return nil, err
	}
	if len(bonds) == 0 {
		return nil, nil
	}
	return &schemas.StrongestBonds{WhichBonds: "all", Bonds: bonds}, nil
}

func strongestBondRows(reader io.Reader) (map[string]schemas.StrongestBond, error) {
	bonds := map[string]schemas.StrongestBond{}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// "label atom1 atom2 distance tx ty tz value" per spin channel.
		if len(fields) < 8 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		length, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			continue
		}
		key := bondKey(fields[1], fields[2])
		if key == "" {
			continue
		}
		if existing, ok := bonds[key]; !ok || math.Abs(value) > math.Abs(existing.Value) {
			bonds[key] = schemas.StrongestBond{Value: value, Length: length}
		}
	}
	return bonds, scanner.Err()
}

// bondKey turns site labels like "Ga1" and "As2" into a sorted element pair
// key "As-Ga".
func bondKey(a, b string) string {
	ea, eb := elementOfLabel(a), elementOfLabel(b)
	if ea == "" || eb == "" {
		return ""
	}
	pair := []string{ea, eb}
	sort.Strings(pair)
	return strings.Join(pair, "-")
}

func elementOfLabel(label string) string {
	end := 0
	for end < len(label) && (label[end] < '0' || label[end] > '9') {
		end++
	}
	return label[:end]
}

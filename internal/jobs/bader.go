package jobs

import (
	"bufio"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"atomflow/internal/fileutil"
	"atomflow/internal/flow"
	"atomflow/internal/services"
)

// commandContext is swapped in tests to point at fake binaries.
var commandContext = exec.CommandContext

// BaderSummary is the JSONable result of a Bader charge analysis.
type BaderSummary struct {
	Charges       []float64 `json:"charges"`
	MinDists      []float64 `json:"min_dists"`
	AtomicVolumes []float64 `json:"atomic_volumes"`
	VacuumCharge  float64   `json:"vacuum_charge"`
	VacuumVolume  float64   `json:"vacuum_volume"`
	NElectrons    float64   `json:"nelectrons"`
}

// BaderAnalysis returns a job running the bader binary against the CHGCAR
// in the referenced calculation directory and parsing ACF.dat into a charge
// summary.
func BaderAnalysis(command string, dir flow.DirArg) *flow.Job {
	return flow.NewJob("bader analysis", func(ctx context.Context, rt flow.Runtime) (*flow.Response, error) {
		path, err := dir.Resolve(rt)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, services.Wrap(services.ErrValidation, "bader", "run",
				"no calculation directory to analyze", nil)
		}
		path = fileutil.StripHostname(path)

		chgcar := fileutil.Zpath(filepath.Join(path, "CHGCAR"))
		cmd := commandContext(ctx, command, chgcar)
		cmd.Dir = path
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "bader", "run",
				"bader failed: "+strings.TrimSpace(string(out)), err)
		}

		summary, err := parseACF(filepath.Join(path, "ACF.dat"))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "bader", "parse",
				"ACF.dat unreadable", err)
		}
		return &flow.Response{Output: summary}, nil
	})
}

// parseACF reads the per-atom table and trailing totals of an ACF.dat file.
func parseACF(path string) (*BaderSummary, error) {
	reader, err := fileutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	summary := &BaderSummary{}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "VACUUM CHARGE"):
			summary.VacuumCharge = lastFloat(line)
		case strings.HasPrefix(upper, "VACUUM VOLUME"):
			summary.VacuumVolume = lastFloat(line)
		case strings.HasPrefix(upper, "NUMBER OF ELECTRONS"):
			summary.NElectrons = lastFloat(line)
		default:
			fields := strings.Fields(line)
			// Atom rows: index X Y Z charge min-dist volume.
			if len(fields) != 7 {
				continue
			}
			if _, err := strconv.Atoi(fields[0]); err != nil {
				continue
			}
			charge, err1 := strconv.ParseFloat(fields[4], 64)
			minDist, err2 := strconv.ParseFloat(fields[5], 64)
			volume, err3 := strconv.ParseFloat(fields[6], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				continue
			}
			summary.Charges = append(summary.Charges, charge)
			summary.MinDists = append(summary.MinDists, minDist)
			summary.AtomicVolumes = append(summary.AtomicVolumes, volume)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}

func lastFloat(line string) float64 {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0
	}
	v, _ := strconv.ParseFloat(fields[len(fields)-1], 64)
	return v
}

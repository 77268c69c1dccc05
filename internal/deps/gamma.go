package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckGammaVasp reports the gamma-only VASP binary that k-point optimized
// runs will execute.
//
// When no gamma command is configured, the lookup prefers a vasp_gam binary
// that sits next to the standard VASP executable and falls back to resolving
// "vasp_gam" from PATH, so status output matches what a run would use.
func CheckGammaVasp(vaspCommand, gammaCommand string) Status {
	result := Status{
		Name:        "VASP (gamma-only)",
		Description: "Gamma-point builds speed up molecule and large-cell runs",
		Optional:    true,
	}

	if configured := strings.TrimSpace(gammaCommand); configured != "" {
		result.Command = configured
		if _, err := exec.LookPath(configured); err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", configured)
			return result
		}
		result.Available = true
		return result
	}

	standard := strings.TrimSpace(vaspCommand)
	if standard != "" {
		if resolved, err := exec.LookPath(standard); err == nil {
			if candidate, ok := gammaSiblingCandidate(resolved); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	gammaName := "vasp_gam"
	if gammaPath, err := exec.LookPath(gammaName); err == nil {
		result.Command = gammaPath
		result.Available = true
		return result
	}

	result.Command = gammaName
	result.Detail = fmt.Sprintf("binary %q not found", gammaName)
	return result
}

func gammaSiblingCandidate(vaspPath string) (string, bool) {
	if vaspPath == "" {
		return "", false
	}
	dir := filepath.Dir(vaspPath)
	name := "vasp_gam"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

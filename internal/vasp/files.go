package vasp

import (
	"os"
	"path/filepath"

	"atomflow/internal/fileutil"
)

// coreInputFiles are carried between chained VASP calculations.
var coreInputFiles = []string{"INCAR", "KPOINTS", "POTCAR", "CONTCAR"}

// CopyOutputs copies the previous calculation's inputs and any additional
// files (WAVECAR, CHGCAR) into dstDir, decompresses what arrived gzipped,
// and renames CONTCAR to POSCAR so the new run continues from the relaxed
// geometry. srcDir may carry a "host:" prefix.
func CopyOutputs(srcDir, dstDir string, additionalFiles ...string) error {
	src := fileutil.StripHostname(srcDir)

	include := make([]string, 0, len(coreInputFiles)+len(additionalFiles))
	include = append(include, coreInputFiles...)
	include = append(include, additionalFiles...)

	if _, err := fileutil.CopyCalcFiles(src, dstDir, fileutil.CopyOptions{
		IncludeFiles: include,
		AllowMissing: true,
	}); err != nil {
		return err
	}
	if err := fileutil.GunzipDir(dstDir, include...); err != nil {
		return err
	}
	return fileutil.RenameFiles(dstDir, map[string]string{"CONTCAR": "POSCAR"})
}

// UpdateIncar rewrites dir/INCAR with the given parameters changed and the
// remaining ones preserved.
func UpdateIncar(dir string, updates map[string]any) error {
	params := readIncarParameters(dir)
	if params == nil {
		params = map[string]any{}
	}
	for k, v := range updates {
		params[k] = v
	}
	return os.WriteFile(filepath.Join(dir, "INCAR"), []byte(renderIncar(params)), 0o644)
}

// HasOutputs reports whether dir looks like a finished VASP calculation.
func HasOutputs(dir string) bool {
	return fileutil.Exists(filepath.Join(dir, "OUTCAR")) &&
		fileutil.Exists(filepath.Join(dir, "OSZICAR"))
}

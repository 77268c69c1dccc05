package flow

import (
	"fmt"

	"atomflow/internal/structure"
)

// StructureArg is a structure input that is either concrete or a reference
// to an earlier job's output. Makers accept both so the first step of a flow
// can take a real structure while later steps take references.
type StructureArg struct {
	Value *structure.Structure
	Ref   Ref
}

// Structure wraps a concrete structure as a maker argument.
func Structure(s *structure.Structure) StructureArg {
	return StructureArg{Value: s}
}

// StructureRef wraps an output reference as a maker argument.
func StructureRef(r Ref) StructureArg {
	return StructureArg{Ref: r}
}

// IsZero reports whether neither a value nor a reference is present.
func (a StructureArg) IsZero() bool {
	return a.Value == nil && a.Ref.IsZero()
}

// Resolve produces the concrete structure, consulting the runtime when the
// argument is a reference.
func (a StructureArg) Resolve(rt Runtime) (*structure.Structure, error) {
	if a.Value != nil {
		return a.Value, nil
	}
	if a.Ref.IsZero() {
		return nil, fmt.Errorf("structure argument is empty")
	}
	resolved, err := rt.Resolve(a.Ref)
	if err != nil {
		return nil, fmt.Errorf("resolve structure %s: %w", a.Ref, err)
	}
	s, ok := resolved.(*structure.Structure)
	if !ok {
		return nil, fmt.Errorf("reference %s resolved to %T, want *structure.Structure", a.Ref, resolved)
	}
	return s, nil
}

// MoleculeArg is a molecule input that is either concrete or a reference to
// an earlier job's output, for quantum-chemistry pipelines.
type MoleculeArg struct {
	Value *structure.Molecule
	Ref   Ref
}

// Molecule wraps a concrete molecule as a maker argument.
func Molecule(m *structure.Molecule) MoleculeArg {
	return MoleculeArg{Value: m}
}

// MoleculeRef wraps an output reference as a maker argument.
func MoleculeRef(r Ref) MoleculeArg {
	return MoleculeArg{Ref: r}
}

// IsZero reports whether neither a value nor a reference is present.
func (a MoleculeArg) IsZero() bool {
	return a.Value == nil && a.Ref.IsZero()
}

// Resolve produces the concrete molecule, consulting the runtime when the
// argument is a reference.
func (a MoleculeArg) Resolve(rt Runtime) (*structure.Molecule, error) {
	if a.Value != nil {
		return a.Value, nil
	}
	if a.Ref.IsZero() {
		return nil, fmt.Errorf("molecule argument is empty")
	}
	resolved, err := rt.Resolve(a.Ref)
	if err != nil {
		return nil, fmt.Errorf("resolve molecule %s: %w", a.Ref, err)
	}
	m, ok := resolved.(*structure.Molecule)
	if !ok {
		return nil, fmt.Errorf("reference %s resolved to %T, want *structure.Molecule", a.Ref, resolved)
	}
	return m, nil
}

// DirArg is a directory input that is either a concrete path or a reference
// to an earlier job's dir_name output.
type DirArg struct {
	Path string
	Ref  Ref
}

// Dir wraps a concrete directory path as a maker argument.
func Dir(path string) DirArg {
	return DirArg{Path: path}
}

// DirRef wraps a dir_name output reference as a maker argument.
func DirRef(r Ref) DirArg {
	return DirArg{Ref: r}
}

// IsZero reports whether neither a path nor a reference is present.
func (a DirArg) IsZero() bool {
	return a.Path == "" && a.Ref.IsZero()
}

// Resolve produces the concrete directory path, consulting the runtime when
// the argument is a reference. Host prefixes recorded by remote engines are
// preserved; callers strip them when accessing the local filesystem.
func (a DirArg) Resolve(rt Runtime) (string, error) {
	if a.Path != "" {
		return a.Path, nil
	}
	if a.Ref.IsZero() {
		return "", nil
	}
	resolved, err := rt.Resolve(a.Ref)
	if err != nil {
		return "", fmt.Errorf("resolve dir %s: %w", a.Ref, err)
	}
	path, ok := resolved.(string)
	if !ok {
		return "", fmt.Errorf("reference %s resolved to %T, want string", a.Ref, resolved)
	}
	return path, nil
}

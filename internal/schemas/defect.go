package schemas

import (
	"fmt"

	"github.com/google/uuid"

	"atomflow/internal/structure"
)

// CCDInput is the per-static-calculation slice of data a configuration
// coordinate diagram is built from.
type CCDInput struct {
	Structure *structure.Structure `json:"structure"`
	Energy    float64              `json:"energy"`
	DirName   string               `json:"dir_name"`
	UUID      uuid.UUID            `json:"uuid"`
}

// CCDDocument is a configuration coordinate diagram: two energy curves over
// the same set of distortions, one per electronic state.
type CCDDocument struct {
	Structures1 []*structure.Structure `json:"structures1"`
	Structures2 []*structure.Structure `json:"structures2"`
	Energies1   []float64              `json:"energies1"`
	Energies2   []float64              `json:"energies2"`
	Distortions []float64              `json:"distortions,omitempty"`

	StaticDirs1  []string    `json:"static_dirs1"`
	StaticDirs2  []string    `json:"static_dirs2"`
	StaticUUIDs1 []uuid.UUID `json:"static_uuids1"`
	StaticUUIDs2 []uuid.UUID `json:"static_uuids2"`

	// RelaxedUUID1/2 identify the undistorted calculation in each curve.
	RelaxedUUID1 uuid.UUID `json:"relaxed_uuid1"`
	RelaxedUUID2 uuid.UUID `json:"relaxed_uuid2"`
}

// NewCCDDocument assembles a diagram from the two curves' static outputs.
// undistortedIndex selects which entry in each curve is the relaxed
// reference.
func NewCCDDocument(inputs1, inputs2 []CCDInput, undistortedIndex int) (*CCDDocument, error) {
	if len(inputs1) == 0 || len(inputs2) == 0 {
		return nil, fmt.Errorf("both curves need at least one calculation")
	}
	if undistortedIndex < 0 || undistortedIndex >= len(inputs1) || undistortedIndex >= len(inputs2) {
		return nil, fmt.Errorf("undistorted index %d out of range", undistortedIndex)
	}

	doc := &CCDDocument{}
	for _, in := range inputs1 {
		doc.Structures1 = append(doc.Structures1, in.Structure)
		doc.Energies1 = append(doc.Energies1, in.Energy)
		doc.StaticDirs1 = append(doc.StaticDirs1, in.DirName)
		doc.StaticUUIDs1 = append(doc.StaticUUIDs1, in.UUID)
	}
	for _, in := range inputs2 {
		doc.Structures2 = append(doc.Structures2, in.Structure)
		doc.Energies2 = append(doc.Energies2, in.Energy)
		doc.StaticDirs2 = append(doc.StaticDirs2, in.DirName)
		doc.StaticUUIDs2 = append(doc.StaticUUIDs2, in.UUID)
	}
	doc.RelaxedUUID1 = doc.StaticUUIDs1[undistortedIndex]
	doc.RelaxedUUID2 = doc.StaticUUIDs2[undistortedIndex]
	return doc, nil
}

// FiniteDifferenceDocument records the WSWQ overlap files a finite
// difference run collected.
type FiniteDifferenceDocument struct {
	DirName       string   `json:"dir_name"`
	RefDir        string   `json:"ref_dir"`
	DistortedDirs []string `json:"distorted_dirs"`
	WSWQFiles     []string `json:"wswq_files"`
}

// Validate checks the document's required fields.
func (d *FiniteDifferenceDocument) Validate() error {
	if d.DirName == "" {
		return fmt.Errorf("finite difference document missing dir_name")
	}
	if len(d.WSWQFiles) == 0 {
		return fmt.Errorf("finite difference document has no WSWQ files")
	}
	if len(d.WSWQFiles) != len(d.DistortedDirs) {
		return fmt.Errorf("WSWQ file count %d does not match distorted dir count %d",
			len(d.WSWQFiles), len(d.DistortedDirs))
	}
	return nil
}

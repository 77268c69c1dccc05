package taskstore

import (
	"encoding/json"
	"fmt"
	"time"

	"atomflow/internal/drones"
	"atomflow/internal/schemas"
)

// Record is one stored task document plus the indexed columns queries
// filter on. The full document rides along as JSON.
type Record struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid,omitempty"`
	Source    string    `json:"source"`
	TaskLabel string    `json:"task_label,omitempty"`
	DirName   string    `json:"dir_name"`
	State     string    `json:"state"`
	Formula   string    `json:"formula,omitempty"`
	Chemsys   string    `json:"chemsys,omitempty"`
	Energy    float64   `json:"energy,omitempty"`
	DocJSON   string    `json:"doc_json"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord extracts the indexed columns from an assimilated document.
// Documents the drones produce are task documents or LOBSTER documents.
func NewRecord(source string, doc drones.Document) (*Record, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	rec := &Record{Source: source, DocJSON: string(data)}

	switch d := doc.(type) {
	case *schemas.TaskDoc:
		rec.UUID = d.UUID.String()
		rec.TaskLabel = d.TaskLabel
		rec.DirName = d.DirName
		rec.State = string(d.State)
		rec.Formula = d.Formula
		rec.Chemsys = d.Chemsys
		rec.Energy = d.Output.Energy
	case *schemas.LobsterTaskDoc:
		rec.TaskLabel = "lobster"
		rec.DirName = d.DirName
		rec.State = string(d.State)
		rec.Chemsys = d.Chemsys
		if d.Structure != nil {
			rec.Formula = d.Structure.Formula()
		}
	default:
		return nil, fmt.Errorf("unsupported document type %T", doc)
	}
	if rec.DirName == "" {
		return nil, fmt.Errorf("document has no dir_name")
	}
	return rec, nil
}

package scene

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Marshal serializes a document to indented JSON. Scene documents run large,
// so this uses sonic rather than encoding/json.
func Marshal(d *Document) ([]byte, error) {
	data, err := sonic.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scene document: %w", err)
	}
	return data, nil
}

// Unmarshal parses a document from JSON without validating its hierarchy;
// callers decide whether a structural check is a load error or a
// validation finding.
func Unmarshal(data []byte) (*Document, error) {
	var d Document
	if err := sonic.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal scene document: %w", err)
	}
	return &d, nil
}

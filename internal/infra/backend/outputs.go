package backend

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/vietddude/bridge/internal/core/domain"
)

// generateOutputs produces one deterministic value per declared output
// field: same inputs give the same outputs, different inputs diverge
// with overwhelming probability. Scenario overrides win over the
// generated value for their field.
func generateOutputs(programID string, sig domain.Signature, inputs map[string]any, scenarios map[string]any) map[string]any {
	outputs := make(map[string]any, len(sig.Outputs))
	for _, f := range sig.Outputs {
		if v, ok := scenarios[f.Name]; ok {
			outputs[f.Name] = v
			continue
		}
		outputs[f.Name] = deterministicValue(programID, f, inputs)
	}
	return outputs
}

func deterministicValue(programID string, field domain.Field, inputs map[string]any) any {
	digest := inputDigest(programID, field.Name, inputs)
	switch field.Type {
	case "int":
		return int(digest % 1_000_000)
	case "float":
		return float64(digest%1_000_000_000) / 1_000_000_000
	case "bool":
		return digest%2 == 0
	default:
		// "str" and composite types get a readable stable token.
		return fmt.Sprintf("%s-%016x", field.Name, digest)
	}
}

// inputDigest hashes (program, field, canonical inputs). json.Marshal
// writes map keys in sorted order, which makes the encoding canonical.
func inputDigest(programID, field string, inputs map[string]any) uint64 {
	h := fnv.New64a()
	h.Write([]byte(programID))
	h.Write([]byte{0})
	h.Write([]byte(field))
	h.Write([]byte{0})
	if encoded, err := json.Marshal(inputs); err == nil {
		h.Write(encoded)
	} else {
		h.Write([]byte(fmt.Sprintf("%v", inputs)))
	}
	return h.Sum64()
}

package store

import (
	"fmt"

	"github.com/roach88/presenter/internal/ir"
)

// marshalRequest converts a StateRequest to canonical JSON TEXT for storage.
func marshalRequest(req *ir.StateRequest) (string, error) {
	if req == nil {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(req.ToIR())
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	return string(data), nil
}

// marshalResponse converts a StateResponse to canonical JSON TEXT. A nil
// response (failed cycle) is stored as SQL NULL.
func marshalResponse(resp *ir.StateResponse) (*string, error) {
	if resp == nil {
		return nil, nil
	}
	data, err := ir.MarshalCanonical(resp.ToIR())
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	s := string(data)
	return &s, nil
}

// UnmarshalJSONText parses stored canonical JSON TEXT back into an IRValue.
// Empty text yields undefined.
func UnmarshalJSONText(data string) (ir.IRValue, error) {
	if data == "" {
		return nil, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal stored json: %w", err)
	}
	return v, nil
}

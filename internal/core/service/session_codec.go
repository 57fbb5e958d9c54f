package service

import (
	"encoding/json"
	"fmt"

	"github.com/aidattendance/portal/internal/core/domain"
)

func encodeIdentity(id domain.Identity) ([]byte, error) {
	raw, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	return raw, nil
}

// decodeIdentity parses a stored session slot. Anything that does not decode
// into a valid identity is reported as domain.ErrMalformedSession.
func decodeIdentity(raw []byte) (domain.Identity, error) {
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}
	if err := id.Validate(); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}
	return id, nil
}

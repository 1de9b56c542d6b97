package models

import "github.com/consensys/gnark/backend/groth16"

// ZKCircuitRegistry provides a trusted source for verifying keys
type ZKCircuitRegistry interface {
	// Get retrieves shape information by name
	Get(name string) (CircuitInfo, error)
	// List lists registered shapes by name
	List() []string

	// GetVerifyingKey retrieves a verifying key by its fingerprint
	GetVerifyingKey(fingerprint string) (groth16.VerifyingKey, error)
	// RegisterVerifyingKey stores a verifying key and returns its fingerprint
	RegisterVerifyingKey(vk groth16.VerifyingKey, shape string) (string, error)
}

// CircuitInfo describes one compiled eligibility circuit shape
type CircuitInfo struct {
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"`
	YearBits     int    `json:"year_bits"`
	Curve        string `json:"curve"`
	Constraints  int    `json:"constraints"`
	PublicInputs int    `json:"public_inputs"`
	Fingerprint  string `json:"fingerprint"` // keccak256 of the canonical verifying key
}

package protocol

import "errors"

var (
	// ErrSetupFailed signals a backend failure while compiling or generating keys.
	ErrSetupFailed = errors.New("protocol: setup failed")
	// ErrProveFailed signals a backend or shape failure while proving. It is
	// never used to report an ineligible credential.
	ErrProveFailed = errors.New("protocol: prove failed")
	// ErrVerify signals a malformed proof, key or public input. A proof that
	// is well formed but does not verify is reported as false, not ErrVerify.
	ErrVerify = errors.New("protocol: malformed verification input")
)

package portal

import "errors"

// Sentinel error kinds. Callers classify failures with errors.Is.
var (
	// ErrAuthentication means no token could be obtained; nothing can proceed.
	ErrAuthentication = errors.New("portal authentication failed")

	// ErrTransientService means a call kept failing (network or token expiry)
	// past its retry budget. The unit that made the call should be skipped.
	ErrTransientService = errors.New("portal service unavailable")

	// ErrParse means the portal answered with data that could not be decoded.
	ErrParse = errors.New("portal response not parsable")
)

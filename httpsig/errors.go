package httpsig

import "errors"

// Signing errors.
var (
	// ErrNoSigner is returned when SignConfig has no Signer configured.
	ErrNoSigner = errors.New("httpsig: signer must not be nil")

	// ErrNoCoveredComponents is returned when SignConfig has an empty
	// CoveredComponents slice.
	ErrNoCoveredComponents = errors.New("httpsig: covered components must not be empty")
)

// Key material errors.
var (
	// ErrInvalidKey is returned when key material is invalid (nil, wrong
	// curve, insufficient size, etc.).
	ErrInvalidKey = errors.New("httpsig: invalid key material")
)

// Digest errors.
var (
	// ErrUnsupportedDigest is returned when the digest algorithm is not
	// supported.
	ErrUnsupportedDigest = errors.New("httpsig: unsupported digest algorithm")
)

// Component errors.
var (
	// ErrUnknownComponent is returned when an unrecognized derived component
	// identifier is used.
	ErrUnknownComponent = errors.New("httpsig: unknown component identifier")
)

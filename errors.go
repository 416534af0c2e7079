package vpaint

import "github.com/pkg/errors"

// Contract violations. These indicate a programming error upstream and abort
// the operation; nothing is written when one is returned.
var (
	// ErrLengthMismatch is returned when two buffers that must cover the same
	// corners have different lengths.
	ErrLengthMismatch = errors.New("vpaint: buffer length mismatch")

	// ErrLayerNotFound is returned for a layer name that is not in the set.
	ErrLayerNotFound = errors.New("vpaint: layer not found")

	// ErrUnsupportedKind is returned for a layer kind and backing combination
	// the operation cannot handle.
	ErrUnsupportedKind = errors.New("vpaint: unsupported layer kind")

	// ErrCompositeTarget is returned when a generator or swatch targets the
	// composite layer.
	ErrCompositeTarget = errors.New("vpaint: composite layer cannot be a target")

	// ErrInvalidParams is returned by Params.Validate.
	ErrInvalidParams = errors.New("vpaint: invalid parameters")
)

// ErrEmptyMask reports that the active mask selects no corners. It is not a
// failure: like io.EOF it marks a deliberate no-op, and callers test for it
// with errors.Is and skip the write.
var ErrEmptyMask = errors.New("vpaint: mask is empty")

// IsNoop reports whether err only signals that there was nothing to do.
func IsNoop(err error) bool {
	return errors.Is(err, ErrEmptyMask)
}

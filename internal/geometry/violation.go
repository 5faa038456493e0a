package geometry

import (
	"errors"
	"fmt"
)

// BoundaryViolation describes an edit whose geometry escapes the authorized
// region. It carries the offending coordinates and the authorized bounds so
// callers can surface precise feedback instead of a bare boolean.
type BoundaryViolation struct {
	Offending  Point   `json:"offending"`
	Authorized *Region `json:"authorized"`
}

// Error implements the error interface.
func (v *BoundaryViolation) Error() string {
	return fmt.Sprintf("geometry escapes authorized region at (%.2f, %.2f, %.2f)",
		v.Offending.X, v.Offending.Y, v.Offending.Z)
}

// AsBoundaryViolation unwraps err into a BoundaryViolation when possible.
func AsBoundaryViolation(err error) (*BoundaryViolation, bool) {
	var violation *BoundaryViolation
	if errors.As(err, &violation) {
		return violation, true
	}
	return nil, false
}

// ValidateEdit checks that the proposed object geometry stays inside the
// authorized region. It is deterministic and performs no I/O; server-side
// re-validation at merge time is the authoritative gate, client checks are
// advisory only.
func ValidateEdit(authorized *Region, proposed Box) error {
	if authorized == nil {
		return fmt.Errorf("authorized region is required")
	}
	for _, corner := range proposed.Corners() {
		if !authorized.ContainsPoint(corner) {
			return &BoundaryViolation{Offending: corner, Authorized: authorized}
		}
	}
	return nil
}

package comm

import (
	"fmt"
)

// MotorKindError reports a MotorState which can't be encoded.
type MotorKindError struct {
	Kind MotorKind
}

// Error implements error.
func (e *MotorKindError) Error() string {
	return fmt.Sprintf("invalid motor kind %d", e.Kind)
}

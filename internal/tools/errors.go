package tools

import "fmt"

// ErrToolNotFound is returned when a dispatch targets a tool absent from
// the registry. This indicates the model requested a capability that was
// never declared to it; the loop reports it in-band rather than failing
// the request.
type ErrToolNotFound struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool %q is not in the registry", e.ToolName)
}

package validation

import (
	"fmt"
	"strings"

	"github.com/storydeck/storydeck/internal/types"
)

// ValidateStatusTransition rejects a transition to the terminal Done state
// while any direct child is not itself done. children is the issue's direct
// child set, loaded by the caller.
//
// An empty newStatus, or one case-sensitively equal to the current status, is
// a no-op. Only the Done comparison is case-insensitive. Every transition
// other than Done is unrestricted: there is no state machine beyond this
// single guard.
func ValidateStatusTransition(issue *types.Issue, children []*types.Issue, newStatus types.Status) error {
	if newStatus == "" || newStatus == issue.Status {
		return nil
	}

	if !strings.EqualFold(string(newStatus), string(types.StatusDone)) {
		return nil
	}

	pending := 0
	for _, child := range children {
		if !child.IsDone() {
			pending++
		}
	}
	if pending > 0 {
		return fmt.Errorf("%w: cannot mark as Done: child issues are not Done (%d pending)", ErrInvalidTransition, pending)
	}
	return nil
}

// Package audit builds the immutable activity records appended after every
// successful issue mutation.
//
// The package never re-derives diffs from entities: the updater supplies the
// already-stringified old/new pairs, and audit turns them into one
// human-readable record with a changed-field count.
package audit

import (
	"fmt"
	"strings"

	"github.com/storydeck/storydeck/internal/types"
)

// FieldChange is one field-level difference between an issue's prior and new
// state, already stringified by the caller.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Stringify renders a field value for comparison and display. Nil pointers
// and absent values become the empty string so "unset" and "empty" compare
// equal, matching how the updater decides whether a field changed.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *int64:
		if x == nil {
			return ""
		}
		return fmt.Sprintf("%d", *x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Compare builds a FieldChange for the named field. The second return is
// false when the stringified values are equal, i.e. nothing changed.
func Compare(field string, oldVal, newVal any) (FieldChange, bool) {
	o, n := Stringify(oldVal), Stringify(newVal)
	if o == n {
		return FieldChange{}, false
	}
	return FieldChange{Field: field, Old: o, New: n}, true
}

// NewActivity builds the append-only record for a mutation. For an UPDATED
// action with an empty change set it returns nil: a no-op update produces no
// audit record. userID is nil when the actor could not be resolved; the
// record is still produced.
func NewActivity(issueID int64, userID *int64, action types.Action, changes []FieldChange) *types.Activity {
	if action == types.ActionUpdated && len(changes) == 0 {
		return nil
	}
	return &types.Activity{
		IssueID:     issueID,
		UserID:      userID,
		Action:      action,
		Changes:     Describe(action, changes),
		ChangeCount: len(changes),
	}
}

// Describe renders the multi-line change description: an "Issue Created"
// line for CREATED actions, then one "field: old → new" line per change.
func Describe(action types.Action, changes []FieldChange) string {
	var lines []string
	if action == types.ActionCreated {
		lines = append(lines, "Issue Created")
	}
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("%s: %s → %s", c.Field, c.Old, c.New))
	}
	return strings.Join(lines, "\n")
}

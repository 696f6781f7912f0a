// Package validation enforces the structural invariants of the issue
// hierarchy: parent/child type compatibility, acyclicity of the per-project
// issue forest, and Done-ordering of status transitions.
//
// The validators own no state. They are re-run on every create and every
// parent-changing update, never cached.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storydeck/storydeck/internal/types"
)

// Validation failure kinds. Callers branch on these with errors.Is; the
// wrapped message carries the specific, human-readable reason.
var (
	ErrInvalidHierarchy   = errors.New("invalid hierarchy")
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// MaxAncestorHops bounds the ancestor walk during cycle detection. The bound
// protects against a corrupted or already-cyclic graph that evaded earlier
// prevention; reaching it is treated as "no cycle detected", not an error.
const MaxAncestorHops = 50

// IssueResolver fetches issues by id during the ancestor walk. Implemented by
// the storage layer; tests supply an in-memory map.
type IssueResolver interface {
	GetIssue(ctx context.Context, id int64) (*types.Issue, error)
}

// ValidateHierarchy checks a proposed parent link for an issue of the given
// type. currentIssueID is non-nil on updates and enables self-parent and
// cycle checks; it is nil on creates, where the issue does not exist yet.
//
// A nil parentID is valid for every type except Subtask.
func ValidateHierarchy(ctx context.Context, resolver IssueResolver, parentID *int64, issueType types.IssueType, currentIssueID *int64) error {
	if !issueType.IsValid() {
		return fmt.Errorf("%w: invalid issue type: %s", ErrInvalidHierarchy, issueType)
	}

	if parentID == nil {
		if issueType.RequiresParent() {
			return fmt.Errorf("%w: Subtask must belong to a Task (parent_id required)", ErrInvalidHierarchy)
		}
		return nil
	}

	parent, err := resolver.GetIssue(ctx, *parentID)
	if err != nil || parent == nil {
		return fmt.Errorf("%w: parent issue not found", ErrInvalidHierarchy)
	}

	if currentIssueID != nil {
		if *parentID == *currentIssueID {
			return fmt.Errorf("%w: cannot set issue as its own parent", ErrInvalidHierarchy)
		}
		if err := checkAncestorCycle(ctx, resolver, parent, *currentIssueID); err != nil {
			return err
		}
	}

	return checkTypeCompatibility(issueType, parent.IssueType)
}

// checkAncestorCycle walks the ancestor chain starting at parent, following
// parent references for at most MaxAncestorHops. An explicit bounded loop is
// used rather than recursion so a deep or corrupted chain cannot grow the
// stack.
func checkAncestorCycle(ctx context.Context, resolver IssueResolver, parent *types.Issue, currentIssueID int64) error {
	ancestor := parent
	for depth := 0; ancestor.ParentID != nil && depth < MaxAncestorHops; depth++ {
		if *ancestor.ParentID == currentIssueID {
			return fmt.Errorf("%w: issue %d is an ancestor of the proposed parent", ErrCircularDependency, currentIssueID)
		}
		next, err := resolver.GetIssue(ctx, *ancestor.ParentID)
		if err != nil || next == nil {
			// Dangling parent reference terminates the walk; no cycle found.
			return nil
		}
		ancestor = next
	}
	return nil
}

func checkTypeCompatibility(issueType, parentType types.IssueType) error {
	valid := issueType.ValidParents()
	if len(valid) == 0 {
		return fmt.Errorf("%w: %s cannot have a parent issue", ErrInvalidHierarchy, issueType)
	}
	for _, t := range valid {
		if parentType == t {
			return nil
		}
	}
	names := make([]string, len(valid))
	for i, t := range valid {
		names[i] = string(t)
	}
	return fmt.Errorf("%w: %s must be a child of %s, not %s",
		ErrInvalidHierarchy, issueType, strings.Join(names, " or "), parentType)
}

// Package idgen derives human-readable story codes for new issues.
//
// Codes look like "AB-0042": a project prefix, a hyphen, and a sequence
// number zero-padded to at least four digits. Allocation is a pure
// scan-then-increment over the codes already present in the project; the
// storage layer runs it inside the same transaction as the insert so two
// concurrent creations cannot observe the same maximum.
package idgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/storydeck/storydeck/internal/types"
)

// FallbackPrefix is used when a project has neither a configured prefix nor
// a name to derive one from.
const FallbackPrefix = "XX"

// ProjectPrefix resolves the numbering prefix for a project: the configured
// prefix, else the first two characters of the project name upper-cased,
// else FallbackPrefix.
func ProjectPrefix(project *types.Project) string {
	if project.Prefix != "" {
		return strings.ToUpper(project.Prefix)
	}
	name := strings.TrimSpace(project.Name)
	if name == "" {
		return FallbackPrefix
	}
	if len(name) < 2 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(name[:2])
}

// NextStoryCode computes the next code in the project's numbering sequence
// given every existing code in the project. Codes under other prefixes and
// codes with unparsable numeric suffixes are skipped rather than treated as
// errors. Numbers past 9999 simply widen beyond four digits.
func NextStoryCode(project *types.Project, existingCodes []string) string {
	prefix := ProjectPrefix(project)
	max := 0
	for _, code := range existingCodes {
		n, ok := parseSuffix(code, prefix)
		if ok && n > max {
			max = n
		}
	}
	return FormatStoryCode(prefix, max+1)
}

// FormatStoryCode renders a prefix and sequence number as a story code.
func FormatStoryCode(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// parseSuffix extracts the numeric suffix of a code under the given prefix.
// The suffix is everything after the last hyphen, matching how codes with
// hyphenated prefixes are read back.
func parseSuffix(code, prefix string) (int, bool) {
	if !strings.HasPrefix(code, prefix+"-") {
		return 0, false
	}
	idx := strings.LastIndex(code, "-")
	n, err := strconv.Atoi(code[idx+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

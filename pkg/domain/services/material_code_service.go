package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// MaterialCodeComparator orders materials by the bracketed display code embedded
// in their identifiers, e.g. "Folleto [0114M]"
type MaterialCodeComparator struct {
	displayPattern *regexp.Regexp
	codePattern    *regexp.Regexp
}

// NewMaterialCodeComparator creates a comparator with the default patterns
func NewMaterialCodeComparator() *MaterialCodeComparator {
	return &MaterialCodeComparator{
		displayPattern: regexp.MustCompile(`\[([^\]]+)\]`),
		codePattern:    regexp.MustCompile(`^(\d+)(.*)$`),
	}
}

// DisplayCode extracts the bracketed token of a material identifier, or "" if absent
func (mc *MaterialCodeComparator) DisplayCode(id entities.MaterialCode) string {
	m := mc.displayPattern.FindStringSubmatch(string(id))
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Compare orders two material identifiers by display code (numeric prefix first),
// then by the full identifier.
// Returns: -1 if a < b, 0 if equal, 1 if a > b
func (mc *MaterialCodeComparator) Compare(a, b entities.MaterialCode) int {
	if a == b {
		return 0
	}

	da, db := mc.DisplayCode(a), mc.DisplayCode(b)
	switch {
	case da != "" && db == "":
		return -1
	case da == "" && db != "":
		return 1
	case da != db:
		return mc.compareDisplay(da, db)
	}
	return strings.Compare(string(a), string(b))
}

// Less is Compare adapted for sort.Slice
func (mc *MaterialCodeComparator) Less(a, b entities.MaterialCode) bool {
	return mc.Compare(a, b) < 0
}

func (mc *MaterialCodeComparator) compareDisplay(a, b string) int {
	numA, suffixA, errA := mc.parseDisplay(a)
	numB, suffixB, errB := mc.parseDisplay(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	if numA < numB {
		return -1
	} else if numA > numB {
		return 1
	}
	return strings.Compare(suffixA, suffixB)
}

// parseDisplay splits "0114M" into 114 and "M"
func (mc *MaterialCodeComparator) parseDisplay(code string) (int, string, error) {
	m := mc.codePattern.FindStringSubmatch(code)
	if len(m) != 3 {
		return 0, "", strconv.ErrSyntax
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", err
	}
	return n, m[2], nil
}

package service

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

const (
	maxCodeAttempts  = 5
	maxBranchCodeLen = 4
	maxCourseCodeLen = 16
)

var branchAbbreviations = map[string]string{
	"computer engineering":                         "CE",
	"computer science":                             "CS",
	"computer science and engineering":             "CS",
	"information technology":                       "IT",
	"electronics and telecommunication":            "ET",
	"electronics and computer science":             "EC",
	"electrical":                                   "EE",
	"electrical engineering":                       "EE",
	"mechanical":                                   "ME",
	"mechanical engineering":                       "ME",
	"civil":                                        "CV",
	"civil engineering":                            "CV",
	"artificial intelligence and data science":     "AD",
	"artificial intelligence and machine learning": "AI",
}

var abbreviationStopWords = map[string]bool{"and": true, "of": true, "&": true, "in": true}

// branchCode resolves the branch abbreviation used in course codes. Unknown
// branches fall back to their initials, capped at four letters; short codes
// are used as-is.
func branchCode(branch string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(branch), " "))
	if code, ok := branchAbbreviations[normalized]; ok {
		return code
	}
	words := strings.Fields(normalized)
	if len(words) == 1 && len(words[0]) <= 3 {
		return strings.ToUpper(words[0])
	}
	var b strings.Builder
	for _, w := range words {
		if abbreviationStopWords[w] {
			continue
		}
		r := []rune(w)[0]
		if unicode.IsLetter(r) && b.Len() < maxBranchCodeLen {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	if b.Len() == 0 {
		return "XX"
	}
	return b.String()
}

// coursePrefix is everything before the sequence number.
func coursePrefix(branch, verticalCode string, semester int) string {
	return branchCode(branch) + strings.ToUpper(strings.TrimSpace(verticalCode)) + strconv.Itoa(semester)
}

// formatCourseCode renders {BRANCH}{VERTICAL}{SEMESTER}{SEQ:02}{T|P}. Codes
// longer than the catalog column allows are rejected.
func formatCourseCode(prefix string, seq int, courseType models.CourseType) (string, error) {
	code := fmt.Sprintf("%s%02d%s", prefix, seq, courseType.Suffix())
	if len(code) > maxCourseCodeLen {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("generated course code %s exceeds %d characters; supply a code", code, maxCourseCodeLen))
	}
	return code, nil
}

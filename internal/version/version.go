package version

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidVersion = errors.New("invalid version string")

/**
 *	Dotted numeric version, e.g. "1.2.3" -> [1 2 3]
 */
type Number struct {
	Parts []int
	raw   string
}

/**
 * Parse version string into Number
 * @param {string} verstr - Version string in dotted numeric form (e.g. "1.10.0")
 * @returns {Number, error} Parsed version, ErrInvalidVersion when any part is not a number
 * @description
 * - Any count of components is accepted ("2", "1.2", "1.2.3.4")
 * - Empty components and signs are rejected, so "1..2", "-1.0" and "1.2.3-beta" fail
 */
func Parse(verstr string) (Number, error) {
	verstr = strings.TrimSpace(verstr)
	if verstr == "" {
		return Number{}, ErrInvalidVersion
	}
	fields := strings.Split(verstr, ".")
	id := Number{Parts: make([]int, 0, len(fields)), raw: verstr}
	for _, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return Number{}, ErrInvalidVersion
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Number{}, ErrInvalidVersion
		}
		id.Parts = append(id.Parts, n)
	}
	return id, nil
}

// Valid reports whether s parses as a dotted numeric version.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (v Number) String() string {
	if v.raw != "" {
		return v.raw
	}
	strs := make([]string, len(v.Parts))
	for i, p := range v.Parts {
		strs[i] = strconv.Itoa(p)
	}
	return strings.Join(strs, ".")
}

/**
 * Compare two versions component by component
 * @returns {int} <0 when a<b, 0 when equal, >0 when a>b
 * @description
 * - Numeric, not lexicographic: 1.10.0 > 1.9.9
 * - A strict prefix sorts first: 1.2 < 1.2.0
 */
func Compare(a, b Number) int {
	for i := 0; i < len(a.Parts) && i < len(b.Parts); i++ {
		if a.Parts[i] != b.Parts[i] {
			return a.Parts[i] - b.Parts[i]
		}
	}
	return len(a.Parts) - len(b.Parts)
}

// CompareStrings orders raw version strings; unparseable strings rank below every valid one.
func CompareStrings(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return Compare(va, vb)
}

/**
 * Sort versions in descending order
 * @param {[]string} versions - Raw version strings, left unmodified
 * @returns {[]string} New slice, newest first, unparseable entries last in input order
 */
func Sort(versions []string) []string {
	sorted := make([]string, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareStrings(sorted[i], sorted[j]) > 0
	})
	return sorted
}

// Latest returns the greatest parseable version, false if there is none.
func Latest(versions []string) (string, bool) {
	var best Number
	found := false
	for _, s := range versions {
		v, err := Parse(s)
		if err != nil {
			continue
		}
		if !found || Compare(v, best) > 0 {
			best = v
			found = true
		}
	}
	if !found {
		return "", false
	}
	return best.String(), true
}

// Package version compares extension versions and finds installed
// extensions that have newer releases.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type triple struct {
	major, minor, patch int
}

// parse reads major.minor.patch. Missing parts count as zero and a
// pre-release or build suffix is ignored.
func parse(s string) (triple, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if s == "" || len(parts) > 3 {
		return triple{}, fmt.Errorf("invalid version %q", s)
	}

	var numbers [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return triple{}, fmt.Errorf("invalid version %q", s)
		}
		numbers[i] = n
	}

	return triple{numbers[0], numbers[1], numbers[2]}, nil
}

// Compare returns 1 if a > b, -1 if a < b, and 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for _, pair := range []lo.Tuple2[int, int]{
		{A: av.major, B: bv.major},
		{A: av.minor, B: bv.minor},
		{A: av.patch, B: bv.patch},
	} {
		if pair.A > pair.B {
			return 1, nil
		}

		if pair.A < pair.B {
			return -1, nil
		}
	}

	return 0, nil
}

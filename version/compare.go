// Package version inspects the versions of the external tools streamgrab drives.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Compare orders two dotted numeric versions such as 2024.08.06 or 120.0.6099.109.
// Missing components count as zero. It returns 1 if a > b, -1 if a < b and 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for i := 0; i < max(len(av), len(bv)); i++ {
		x, y := at(av, i), at(bv, i)
		switch {
		case x > y:
			return 1, nil
		case x < y:
			return -1, nil
		}
	}

	return 0, nil
}

func parse(s string) ([]int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}

	parts := strings.Split(s, ".")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("version %q: %w", s, err)
		}
		out[i] = n
	}

	return out, nil
}

func at(v []int, i int) int {
	if i < len(v) {
		return v[i]
	}
	return 0
}

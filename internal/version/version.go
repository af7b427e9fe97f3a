// Package version orders GNOME Shell version strings numerically.
//
// Shell versions are "MAJOR" or "MAJOR.MINOR" ("45", "3.38", "46.1").
// Comparing them as strings gets "9" > "10" wrong; Compare maps each
// version onto a canonical semantic version and orders it with
// golang.org/x/mod/semver, falling back to the leading digits of
// components such as "46.beta".
package version

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Canonical returns the semver form of a shell version: "45" -> "v45.0.0",
// "3.38" -> "v3.38.0". Components past the third are dropped.
func Canonical(v string) string {
	nums := components(v)
	for len(nums) < 3 {
		nums = append(nums, 0)
	}
	parts := make([]string, 3)
	for i := range parts {
		parts[i] = strconv.Itoa(nums[i])
	}
	return semver.Canonical("v" + strings.Join(parts, "."))
}

// Compare returns -1, 0 or +1 as a is less than, equal to, or greater
// than b, comparing numeric components left to right.
func Compare(a, b string) int {
	if c := semver.Compare(Canonical(a), Canonical(b)); c != 0 {
		return c
	}
	// semver only sees three components; settle longer versions here.
	na, nb := components(a), components(b)
	for i := 3; i < len(na) || i < len(nb); i++ {
		x, y := at(na, i), at(nb, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// Major returns the leading numeric component of v.
func Major(v string) int {
	return at(components(v), 0)
}

// Valid reports whether every component of v is numeric.
func Valid(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, p := range strings.Split(v, ".") {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return false
		}
	}
	return true
}

func components(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil
	}
	fields := strings.Split(v, ".")
	out := make([]int, len(fields))
	for i, f := range fields {
		digits := f[:len(f)-len(strings.TrimLeft(f, "0123456789"))]
		n, err := strconv.Atoi(digits)
		if err != nil {
			n = 0
		}
		out[i] = n
	}
	return out
}

func at(nums []int, i int) int {
	if i < len(nums) {
		return nums[i]
	}
	return 0
}

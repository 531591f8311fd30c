// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"sort"
	"strings"
)

// substituteParams replaces every ${name} reference in s with the
// value of row[name]. An unresolved reference returns
// *ParameterMissingError naming the available columns, per spec.md
// §4.7.
func substituteParams(s string, row map[string]string) (string, error) {
	var b strings.Builder
	i := 0
	for {
		start := strings.Index(s[i:], "${")
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i
		b.WriteString(s[i:start])
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			b.WriteString(s[start:])
			break
		}
		end += start
		name := s[start+2 : end]
		val, ok := row[name]
		if !ok {
			return "", &ParameterMissingError{Name: name, Available: sortedKeys(row)}
		}
		b.WriteString(val)
		i = end + 1
	}
	return b.String(), nil
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

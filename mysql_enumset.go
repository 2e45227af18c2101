package main

import (
	"fmt"
	"strings"
)

// enumValueList returns the value list inside enum(...)/set(...) verbatim,
// e.g. "enum('a','b')" → "'a','b'". The values are spliced into the CHECK
// constraint exactly as MySQL reported them.
func enumValueList(rawType string) (string, error) {
	open := strings.IndexByte(rawType, '(')
	close := strings.LastIndexByte(rawType, ')')
	if open < 0 || close <= open {
		return "", fmt.Errorf("invalid enum/set column type %q", rawType)
	}
	list := strings.TrimSpace(rawType[open+1 : close])
	if list == "" {
		return "", fmt.Errorf("empty enum/set value list in %q", rawType)
	}
	return list, nil
}

// parseEnumSetValues parses the individual values of an enum/set
// declaration, handling '' and backslash escapes.
func parseEnumSetValues(rawType string) ([]string, error) {
	inside, err := enumValueList(rawType)
	if err != nil {
		return nil, err
	}

	var values []string
	i := 0
	for i < len(inside) {
		for i < len(inside) && (inside[i] == ' ' || inside[i] == ',') {
			i++
		}
		if i >= len(inside) {
			break
		}
		if inside[i] != '\'' {
			return nil, fmt.Errorf("invalid enum/set value list in %q", rawType)
		}
		i++

		var b strings.Builder
		for i < len(inside) {
			c := inside[i]
			if c == '\\' {
				if i+1 >= len(inside) {
					return nil, fmt.Errorf("invalid escape in %q", rawType)
				}
				b.WriteByte(inside[i+1])
				i += 2
				continue
			}
			if c == '\'' {
				if i+1 < len(inside) && inside[i+1] == '\'' {
					b.WriteByte('\'')
					i += 2
					continue
				}
				i++
				break
			}
			b.WriteByte(c)
			i++
		}

		values = append(values, b.String())
	}

	return values, nil
}

package main

import (
	"path/filepath"
	"strings"
)

func splitList(value string) []string {
	var out []string
	for _, part := range filepath.SplitList(value) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

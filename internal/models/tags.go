package models

import "strings"

// SplitTags splits a comma separated tag string, dropping empty parts
func SplitTags(tags string) []string {
	out := []string{}
	for _, part := range strings.Split(tags, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// JoinTags joins tags with commas, preserving order
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// NormalizeTags trims tags and drops empty entries. Order and repeats are kept
// so a client's tag list round-trips unchanged.
func NormalizeTags(tags string) string {
	return JoinTags(SplitTags(tags))
}

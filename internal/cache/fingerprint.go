package cache

import "strings"

// Fingerprint computes a batch's fingerprint: the ordered concatenation
// of its paths with no separator (spec.md §3, glossary "Batch
// fingerprint"). This is known to collide — ["ab", "c"] and ["a", "bc"]
// produce the same string — and spec.md §9 leaves that open as "unclear
// if intentional." It is kept exactly as specified here rather than
// hashed or delimited, because spec.md §8's scenario 2 requires the
// fingerprint for ["a.png","b.png","c.png"] to equal the literal string
// "a.pngb.pngc.png"; any safer encoding would change that observable
// value. See DESIGN.md for the full rationale.
func Fingerprint(paths []string) string {
	return strings.Join(paths, "")
}

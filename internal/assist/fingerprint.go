// Package assist implements the assistant's response-resolution pipeline
// components: query fingerprinting, the circuit breaker guarding the
// completion provider, pattern matchers, the two-tier response cache, the
// personalization context assembler, query classification, prompt
// optimization, completion invocation, and UI action derivation.
//
// Components are plain constructor-injected values owned by the service
// layer; nothing in this package reaches for hidden singletons.
package assist

import "strconv"

// Fingerprint derives a deterministic cache key from a query and an optional
// user id. The same inputs always yield the same key, across process
// restarts and platforms.
//
// The scheme is a 31-polynomial rolling hash over the runes of
// "query|userID", folded into a signed 32-bit integer, absolute value,
// rendered base-36. It is intentionally not cryptographic; collisions are
// accepted and only stability matters.
func Fingerprint(query, userID string) string {
	var h int32
	for _, r := range query + "|" + userID {
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

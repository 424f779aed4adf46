package eligibility

import "math/rand/v2"

// RandomSelector picks proxies uniformly at random, with replacement.
// The set never changes after construction, so it is safe for concurrent use.
type RandomSelector struct {
	proxies []string
}

// NewRandomSelector copies the given proxies. An empty set means direct connections.
func NewRandomSelector(proxies []string) *RandomSelector {
	return &RandomSelector{proxies: append([]string(nil), proxies...)}
}

// Next returns a random proxy, or false when the set is empty
func (s *RandomSelector) Next() (string, bool) {
	if len(s.proxies) == 0 {
		return "", false
	}
	return s.proxies[rand.IntN(len(s.proxies))], true
}

// Len returns the size of the proxy set
func (s *RandomSelector) Len() int {
	return len(s.proxies)
}

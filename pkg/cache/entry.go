package cache

import "time"

// ProbeEntry is a cached probe verdict.
type ProbeEntry struct {
	// Accepted is whether the endpoint accepted the column list.
	Accepted bool `json:"accepted"`

	// CheckedAt is when the endpoint was probed.
	CheckedAt time.Time `json:"checked_at"`

	// Expires is when the verdict must be probed again.
	Expires time.Time `json:"expires"`
}

// NewProbeEntry creates a verdict valid for ttl from now.
func NewProbeEntry(accepted bool, ttl time.Duration) *ProbeEntry {
	now := time.Now()
	return &ProbeEntry{
		Accepted:  accepted,
		CheckedAt: now,
		Expires:   now.Add(ttl),
	}
}

// IsExpired returns true if the verdict has expired.
func (e *ProbeEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 if already expired.
func (e *ProbeEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

package cache

import (
	"strings"
)

// ProbeKey identifies the verdict for one column list at one endpoint.
type ProbeKey struct {
	// Endpoint is the scan URL the verdict was obtained from.
	Endpoint string

	// Columns is the probed list. Order is kept: the endpoint judges a list, not a set.
	Columns []string
}

// String generates the Redis key.
// Format: scan:probe:<endpoint>:<col1>,<col2>,...
//
// Example:
//
//	scan:probe:https://scanner.tradingview.com/america/scan:name,close
func (k ProbeKey) String() string {
	endpoint := strings.TrimRight(k.Endpoint, "/")
	return "scan:probe:" + endpoint + ":" + strings.Join(k.Columns, ",")
}

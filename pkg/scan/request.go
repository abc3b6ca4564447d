package scan

// Filter is one condition of a scan request.
type Filter struct {
	Left      string   `json:"left"`
	Operation string   `json:"operation"`
	Right     []string `json:"right"`
}

// Options carries request-wide scan options.
type Options struct {
	Lang string `json:"lang"`
}

// SymbolQuery restricts the symbol universe by type.
type SymbolQuery struct {
	Types []string `json:"types"`
}

// Symbols restricts the scan to specific tickers (empty = all).
type Symbols struct {
	Query   SymbolQuery `json:"query"`
	Tickers []string    `json:"tickers"`
}

// Sort orders scan results.
type Sort struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// Request is the JSON body posted to the scan endpoint.
type Request struct {
	Filter  []Filter `json:"filter"`
	Options Options  `json:"options"`
	Symbols Symbols  `json:"symbols"`
	Columns []string `json:"columns"`
	Sort    Sort     `json:"sort"`
	Range   [2]int   `json:"range"`
}

// NewRequest builds a stock scan over [start, end) sorted by sortBy descending.
func NewRequest(columns []string, sortBy string, start, end int) Request {
	cols := make([]string, len(columns))
	copy(cols, columns)

	return Request{
		Filter: []Filter{
			{Left: "type", Operation: "in_range", Right: []string{"stock"}},
		},
		Options: Options{Lang: "en"},
		Symbols: Symbols{
			Query:   SymbolQuery{Types: []string{}},
			Tickers: []string{},
		},
		Columns: cols,
		Sort:    Sort{SortBy: sortBy, SortOrder: "desc"},
		Range:   [2]int{start, end},
	}
}

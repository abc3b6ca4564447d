// Package dataset holds the scan data model: negotiated schemas, raw items as
// returned by the scan endpoint, and the formatted records collected from them.
package dataset

// TickerField is the synthetic field carrying an item's symbol.
const TickerField = "ticker"

// Schema is the ordered list of columns the endpoint accepted together.
// Order maps positions in RawItem.Values to column names and is the output column order.
type Schema struct {
	columns []string
}

// NewSchema copies columns into an immutable Schema.
func NewSchema(columns []string) Schema {
	c := make([]string, len(columns))
	copy(c, columns)
	return Schema{columns: c}
}

// Columns returns a copy of the schema columns.
func (s Schema) Columns() []string {
	c := make([]string, len(s.columns))
	copy(c, s.columns)
	return c
}

// Len returns the number of columns.
func (s Schema) Len() int {
	return len(s.columns)
}

// Column returns the column at position i.
func (s Schema) Column(i int) string {
	return s.columns[i]
}

// Header returns the output header: ticker followed by the schema columns.
func (s Schema) Header() []string {
	h := make([]string, 0, len(s.columns)+1)
	h = append(h, TickerField)
	return append(h, s.columns...)
}

// RawItem is one entity from a scan page: a symbol and values positionally
// aligned with the requesting Schema.
type RawItem struct {
	Symbol string
	Values []any
}

// RawRecord is an unformatted record: every schema column mapped to its raw value.
type RawRecord struct {
	Ticker string
	Values map[string]any
}

// Record maps field names (schema columns plus ticker) to presentation strings.
type Record map[string]string

// Dataset is the ordered, append-only result of one collection.
type Dataset struct {
	schema  Schema
	records []Record
}

// New creates an empty dataset for schema.
func New(schema Schema) *Dataset {
	return &Dataset{schema: schema}
}

// Schema returns the schema the records were fetched with.
func (d *Dataset) Schema() Schema {
	return d.schema
}

// Append adds a record at the end.
func (d *Dataset) Append(r Record) {
	d.records = append(d.records, r)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns the records in collection order.
func (d *Dataset) Records() []Record {
	return d.records
}

// Header returns ticker followed by the schema columns.
func (d *Dataset) Header() []string {
	return d.schema.Header()
}

// Rows returns the records as rows ordered by Header.
func (d *Dataset) Rows() [][]string {
	header := d.Header()
	rows := make([][]string, 0, len(d.records))
	for _, rec := range d.records {
		row := make([]string, len(header))
		for i, field := range header {
			row[i] = rec[field]
		}
		rows = append(rows, row)
	}
	return rows
}

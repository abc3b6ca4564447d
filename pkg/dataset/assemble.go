package dataset

// Assemble maps an item's values onto schema positions.
// Missing trailing values map to nil; values beyond the schema are ignored.
func Assemble(schema Schema, item RawItem) RawRecord {
	values := make(map[string]any, schema.Len())
	for i, col := range schema.columns {
		if i < len(item.Values) {
			values[col] = item.Values[i]
		} else {
			values[col] = nil
		}
	}
	return RawRecord{
		Ticker: item.Symbol,
		Values: values,
	}
}

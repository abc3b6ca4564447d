// Package format turns raw scan values into presentation strings.
//
// Every field is rendered by exactly one formatter Kind. Which Kind applies is
// decided by a Table: an ordered list of rules matched against the field name,
// evaluated top to bottom, first match wins. Fields no rule matches are Plain.
//
//	table := format.NewTable("statements",
//		format.Rule{Match: format.Equals("close"), Kind: format.Fixed},
//		format.Rule{Match: format.Contains("growth"), Kind: format.Percent},
//	)
//	table.Format("revenue_growth_yoy", json.Number("12.3456")) // "12.35%"
//
// Formatting never fails. Null and empty values render as "", and a value that
// cannot be parsed as a number renders as "" under every numeric Kind.
package format

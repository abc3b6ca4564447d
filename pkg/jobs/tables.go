package jobs

import "github.com/Sternrassler/screener-export/pkg/format"

// PerformanceTable formats price performance columns.
var PerformanceTable = format.NewTable("performance",
	format.Rule{Name: "price", Match: format.Equals("close", "change_abs"), Kind: format.Fixed},
	format.Rule{Name: "change", Match: format.Any(format.Equals("change"), format.HasPrefix("Perf.")), Kind: format.Percent},
	format.Rule{Name: "market_cap", Match: format.Equals("market_cap_basic"), Kind: format.Currency},
	format.Rule{Name: "volume", Match: format.Equals("volume"), Kind: format.Plain},
)

// StatementsTable formats balance sheet, income statement and cash flow columns.
// Ratios carrying a currency token (debt_to_equity_fq) render as money.
var StatementsTable = format.NewTable("statements",
	format.Rule{Name: "price", Match: format.Any(format.Equals("close"), format.HasPrefix("eps")), Kind: format.Fixed},
	format.Rule{Name: "percent", Match: format.Any(format.HasSuffix("_margin"), format.Contains("growth")), Kind: format.Percent},
	format.Rule{
		Name:  "money",
		Match: format.Contains(
			"cap", "cash", "debt", "assets", "liabilities", "equity",
			"expenditure", "profit", "income", "revenue",
		),
		Kind: format.Currency,
	},
)

// ProfitabilityTable formats the profitability and dividends columns.
var ProfitabilityTable = format.NewTable("profitability",
	format.Rule{Name: "price", Match: format.Equals("close"), Kind: format.Fixed},
	format.Rule{
		Name:  "percent",
		Match: format.Any(format.Contains("margin", "yield", "growth"), format.HasPrefix("return_on_")),
		Kind:  format.Percent,
	},
	format.Rule{Name: "money", Match: format.Contains("paid"), Kind: format.Currency},
)

// OverviewTable exports every field as the server sent it.
var OverviewTable = format.NewTable("overview")

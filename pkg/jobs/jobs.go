// Package jobs is the catalog of datasets the exporter knows how to collect.
//
// Each Job names one output file, its desired columns in output order, and
// the rule table used to format its fields. Jobs are grouped the way they are
// usually run together; a group or a single job can be selected by name.
package jobs

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/screener-export/pkg/format"
)

// Job groups.
const (
	GroupPerformance     = "performance"
	GroupStatements      = "statements"
	GroupDividendProfits = "dividend_profits"
	GroupOverview        = "overview"
)

// Job describes one dataset to collect.
type Job struct {
	// Name identifies the job in logs, metrics and selection.
	Name string
	// Group is the set of jobs this one is run with.
	Group string
	// Output is the CSV file name, relative to the output directory.
	Output string
	// Columns are the desired columns, in output order.
	Columns []string
	// Discover replaces Columns with the columns found on the screener page,
	// falling back to Columns when discovery finds nothing.
	Discover bool
	// Table formats the job's fields.
	Table format.Table
	// ProbeDelay, when set, shortens the pause after a rejected probe.
	ProbeDelay time.Duration
}

// dividendProbeDelay is the rejection pause used by the dividend_profits group.
const dividendProbeDelay = 50 * time.Millisecond

// PerformanceColumns are the price performance columns.
var PerformanceColumns = []string{
	"name", "close", "change", "change_abs",
	"Perf.W", "Perf.1M", "Perf.3M", "Perf.6M", "Perf.YTD", "Perf.Y", "Perf.5Y", "Perf.All",
	"volume", "market_cap_basic", "sector", "industry",
}

// BalanceSheetColumns are the most recent fiscal quarter balance sheet columns.
var BalanceSheetColumns = []string{
	"name", "close",
	"total_assets_fq", "current_assets_fq", "cash_n_short_term_invest_fq",
	"total_liabilities_fq", "total_debt_fq", "net_debt_fq", "total_equity_fq",
	"current_ratio_fq", "quick_ratio_fq", "debt_to_equity_fq", "cash_to_debt_fq",
}

// IncomeStatementColumns are trailing twelve month income statement columns.
var IncomeStatementColumns = []string{
	"name", "close",
	"total_revenue_ttm", "revenue_growth_yoy", "gross_profit_ttm", "operating_income_ttm",
	"net_income_ttm", "ebitda_ttm", "eps_diluted_ttm", "eps_diluted_yoy_growth_ttm",
}

// CashflowColumns are trailing twelve month cash flow columns.
var CashflowColumns = []string{
	"name", "close",
	"cash_flow_from_operating_activities_ttm", "cash_flow_from_investing_activities_ttm",
	"cash_flow_from_financing_activities_ttm", "free_cash_flow_ttm", "capital_expenditure_ttm",
}

// ProfitabilityColumns are margin and return columns.
var ProfitabilityColumns = []string{
	"name", "close",
	"gross_margin_ttm", "operating_margin_ttm", "net_margin_ttm", "ebitda_margin_ttm", "ebit_margin_ttm",
	"return_on_assets_ttm", "return_on_equity_ttm", "return_on_invested_capital_ttm",
}

// DividendColumns are dividend columns.
var DividendColumns = []string{
	"name", "close",
	"dividends_yield", "dividends_yield_fwd", "dividend_payout_ratio_ttm",
	"dividends_per_share", "dividends_paid_ttm", "dividend_growth_rate_5y", "ex_dividend_date",
}

// OverviewColumns are the screener's default columns, used when discovery finds none.
var OverviewColumns = []string{
	"name", "close", "change", "change_abs", "volume",
	"market_cap_basic", "price_earnings_ttm", "sector", "industry",
}

// Catalog returns every known job in run order.
func Catalog() []Job {
	return []Job{
		{Name: "performance", Group: GroupPerformance, Output: "tradingview_performance.csv", Columns: PerformanceColumns, Table: PerformanceTable},
		{Name: "balance_sheet", Group: GroupStatements, Output: "balance_sheet.csv", Columns: BalanceSheetColumns, Table: StatementsTable},
		{Name: "income_statement", Group: GroupStatements, Output: "income_statement.csv", Columns: IncomeStatementColumns, Table: StatementsTable},
		{Name: "cashflow", Group: GroupStatements, Output: "cashflow.csv", Columns: CashflowColumns, Table: StatementsTable},
		{Name: "profitability", Group: GroupDividendProfits, Output: "profitability.csv", Columns: ProfitabilityColumns, Table: ProfitabilityTable, ProbeDelay: dividendProbeDelay},
		{Name: "dividends", Group: GroupDividendProfits, Output: "dividends.csv", Columns: DividendColumns, Table: ProfitabilityTable, ProbeDelay: dividendProbeDelay},
		{Name: "overview", Group: GroupOverview, Output: "tradingview_all_stocks.csv", Columns: OverviewColumns, Discover: true, Table: OverviewTable},
	}
}

// Groups returns the group names in catalog order.
func Groups() []string {
	var groups []string
	for _, j := range Catalog() {
		if !slices.Contains(groups, j.Group) {
			groups = append(groups, j.Group)
		}
	}
	return groups
}

// Select returns the jobs matching names, each of which may be a group or a job name.
// No names selects the whole catalog. Jobs keep catalog order and appear once.
func Select(names ...string) ([]Job, error) {
	catalog := Catalog()
	if len(names) == 0 {
		return catalog, nil
	}

	wanted := make(map[string]bool, len(catalog))
	for _, name := range names {
		name = strings.TrimSpace(name)
		matched := false
		for _, j := range catalog {
			if j.Name == name || j.Group == name {
				wanted[j.Name] = true
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown job %q (groups: %s)", name, strings.Join(Groups(), ", "))
		}
	}

	selected := make([]Job, 0, len(wanted))
	for _, j := range catalog {
		if wanted[j.Name] {
			selected = append(selected, j)
		}
	}
	return selected, nil
}

package format

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTable() Table {
	return NewTable("test",
		Rule{Name: "price", Match: Equals("close"), Kind: Fixed},
		Rule{Name: "ratio", Match: Any(HasSuffix("_margin"), Contains("growth")), Kind: Percent},
		Rule{Name: "money", Match: Contains("revenue", "income"), Kind: Currency},
		Rule{Name: "eps", Match: HasPrefix("eps"), Kind: Fixed},
	)
}

func TestTable_ClassifyFirstMatchWins(t *testing.T) {
	table := testTable()

	tests := []struct {
		field string
		want  Kind
	}{
		{"close", Fixed},
		{"gross_margin", Percent},
		{"revenue_growth_yoy", Percent}, // growth rule precedes revenue rule
		{"total_revenue_ttm", Currency},
		{"eps_diluted_ttm", Fixed},
		{"eps_income_growth", Percent},
		{"sector", Plain},
		{"", Plain},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Classify(tt.field))
		})
	}
}

func TestTable_Format(t *testing.T) {
	table := testTable()

	assert.Equal(t, "187.5000", table.Format("close", json.Number("187.5")))
	assert.Equal(t, "12.35%", table.Format("revenue_growth_yoy", json.Number("12.3456")))
	assert.Equal(t, "$1,234,567", table.Format("net_income_ttm", json.Number("1234567.89")))
	assert.Equal(t, "Apple Inc.", table.Format("name", "Apple Inc."))
	assert.Equal(t, "", table.Format("close", nil))
	assert.Equal(t, "", table.Format("close", "n/a"))
}

func TestTable_IsImmutable(t *testing.T) {
	rules := []Rule{{Match: Equals("a"), Kind: Fixed}}
	table := NewTable("immutable", rules...)
	rules[0].Kind = Currency

	assert.Equal(t, Fixed, table.Classify("a"))

	got := table.Rules()
	got[0].Kind = Percent
	assert.Equal(t, Fixed, table.Classify("a"))
	assert.Equal(t, "immutable", table.Name())
}

func TestTable_NilPredicateIgnored(t *testing.T) {
	table := NewTable("nil", Rule{Kind: Currency})
	assert.Equal(t, Plain, table.Classify("anything"))
}

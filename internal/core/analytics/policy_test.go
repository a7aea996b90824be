package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLineValuePolicies(t *testing.T) {
	withPrice := InvoiceFact{Value: dec("99"), Quantity: dec("3"), UnitPrice: dec("30")}
	noPrice := InvoiceFact{Value: dec("99"), Quantity: dec("3"), UnitPrice: decimal.Zero}

	computed := LookupLineValuePolicy(LineValueComputed)
	require.True(t, dec("90").Equal(computed.InvoiceValue(withPrice)))
	require.True(t, dec("99").Equal(computed.InvoiceValue(noPrice)))

	stored := LookupLineValuePolicy(LineValueStored)
	require.True(t, dec("99").Equal(stored.InvoiceValue(withPrice)))

	require.True(t, ValidLineValuePolicy(LineValueStored))
	require.False(t, ValidLineValuePolicy("average"))
	require.True(t, dec("90").Equal(LookupLineValuePolicy("unknown").InvoiceValue(withPrice)))
}

func TestOrderValue(t *testing.T) {
	require.True(t, dec("120").Equal(OrderValue(OrderFact{TotalProduct: dec("120"), QuantityOrdered: dec("2"), UnitPrice: dec("10")})))
	require.True(t, dec("20").Equal(OrderValue(OrderFact{QuantityOrdered: dec("2"), UnitPrice: dec("10")})))
}

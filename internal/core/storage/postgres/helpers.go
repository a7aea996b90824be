package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}

// scanInvoiceRow scans one invoice row in the column order of the projection.
// NULL text columns become "" and NULL numerics become zero.
func scanInvoiceRow(row scanner, p storage.Projection) (analytics.InvoiceFact, error) {
	var (
		emittedAt                               time.Time
		value, quantity, unitPrice              decimal.NullDecimal
		costCenter, rep, client, item, note, st sql.NullString
		err                                     error
	)

	if p == storage.ProjectionPerson {
		err = row.Scan(&emittedAt, &value, &quantity, &unitPrice, &client, &note)
	} else {
		err = row.Scan(&emittedAt, &value, &quantity, &unitPrice, &costCenter, &rep, &client, &item, &note, &st)
	}
	if err != nil {
		return analytics.InvoiceFact{}, fmt.Errorf("failed to scan invoice row: %w", err)
	}

	return analytics.InvoiceFact{
		EmittedAt:        emittedAt,
		Value:            orZero(value),
		Quantity:         orZero(quantity),
		UnitPrice:        orZero(unitPrice),
		CostCenter:       costCenter.String,
		RepresentativeID: rep.String,
		ClientID:         client.String,
		ItemCode:         item.String,
		NoteNumber:       note.String,
		Status:           st.String,
	}, nil
}

// scanOrderRow scans one order row in the column order of the projection.
func scanOrderRow(row scanner, p storage.Projection) (analytics.OrderFact, error) {
	var (
		orderedAt                                  time.Time
		unitPrice, qtyOrdered, qtyDelivered, total decimal.NullDecimal
		costCenter, rep, client, item, number, st  sql.NullString
		err                                        error
	)

	if p == storage.ProjectionPerson {
		err = row.Scan(&orderedAt, &unitPrice, &qtyOrdered, &qtyDelivered, &total, &client, &number)
	} else {
		err = row.Scan(&orderedAt, &unitPrice, &qtyOrdered, &qtyDelivered, &total, &costCenter, &rep, &client, &item, &number, &st)
	}
	if err != nil {
		return analytics.OrderFact{}, fmt.Errorf("failed to scan order row: %w", err)
	}

	return analytics.OrderFact{
		OrderedAt:         orderedAt,
		UnitPrice:         orZero(unitPrice),
		QuantityOrdered:   orZero(qtyOrdered),
		QuantityDelivered: orZero(qtyDelivered),
		TotalProduct:      orZero(total),
		CostCenter:        costCenter.String,
		RepresentativeID:  rep.String,
		ClientID:          client.String,
		ItemCode:          item.String,
		OrderNumber:       number.String,
		Status:            st.String,
	}, nil
}

package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/lib/pq"
)

// SQL for the commercial read model. Ids are exposed as text by the views.

// statusCancelled rows are excluded from every fact scan.
const statusCancelled = "CANCELADO"

// factTable describes one paged fact relation.
type factTable struct {
	name       string
	dateColumn string
	full       []string
	person     []string
}

var (
	invoiceTable = factTable{
		name:       "mv_faturamento",
		dateColumn: "data_emissao",
		full: []string{
			"data_emissao", "valor_total", "quantidade", "valor_unitario",
			"centro_custo", "representante_id", "cliente_id", "codigo_item",
			"numero_nota", "status",
		},
		person: []string{
			"data_emissao", "valor_total", "quantidade", "valor_unitario",
			"cliente_id", "numero_nota",
		},
	}

	orderTable = factTable{
		name:       "pedidos_itens",
		dateColumn: "data_pedido",
		full: []string{
			"data_pedido", "valor_unitario", "quantidade_pedida", "quantidade_entregue",
			"total_produto", "centro_custo", "representante_id", "cliente_id",
			"codigo_item", "numero_pedido", "status",
		},
		person: []string{
			"data_pedido", "valor_unitario", "quantidade_pedida", "quantidade_entregue",
			"total_produto", "cliente_id", "numero_pedido",
		},
	}
)

func (t factTable) columns(p storage.Projection) []string {
	if p == storage.ProjectionPerson {
		return t.person
	}
	return t.full
}

// buildFactQuery renders a paged scan of t with every non-empty filter field
// pushed down. The end date is inclusive. Rows are ordered by date then id so
// LIMIT/OFFSET windows are stable.
func buildFactQuery(t factTable, p storage.Projection, f storage.FactFilter, page storage.Page) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, fmt.Sprintf("%s >= %s", t.dateColumn, arg(dateOnly(f.Start))))
	where = append(where, fmt.Sprintf("%s < %s", t.dateColumn, arg(dateOnly(f.End).AddDate(0, 0, 1))))
	where = append(where, fmt.Sprintf("COALESCE(status, '') <> %s", arg(statusCancelled)))
	if f.CostCenter != "" {
		where = append(where, fmt.Sprintf("centro_custo = %s", arg(f.CostCenter)))
	}
	if len(f.Representatives) > 0 {
		where = append(where, fmt.Sprintf("representante_id = ANY(%s)", arg(pq.Array(f.Representatives))))
	}
	if len(f.Clients) > 0 {
		where = append(where, fmt.Sprintf("cliente_id = ANY(%s)", arg(pq.Array(f.Clients))))
	}
	if len(f.Products) > 0 {
		where = append(where, fmt.Sprintf("codigo_item = ANY(%s)", arg(pq.Array(f.Products))))
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY %s, id LIMIT %s OFFSET %s",
		strings.Join(t.columns(p), ", "),
		t.name,
		strings.Join(where, " AND "),
		t.dateColumn,
		arg(page.Limit),
		arg(page.Offset),
	)
	return query, args
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const (
	// queryDashboardProcedure calls the pre-aggregation routine. Empty filters
	// are passed as NULL.
	queryDashboardProcedure = `SELECT rpc_dashboard_comercial($1, $2, NULLIF($3, ''), NULLIF($4, ''))`

	queryRepresentativeNames = `
		SELECT id, nome
		FROM vw_representantes
		WHERE id = ANY($1)
	`

	queryClientNames = `
		SELECT id, nome
		FROM vw_pessoas
		WHERE id = ANY($1)
	`

	queryItemDescriptions = `
		SELECT codigo, descricao
		FROM vw_itens
		WHERE codigo = ANY($1)
	`

	queryPersonLocations = `
		SELECT id, cidade, uf
		FROM vw_pessoas
		WHERE id = ANY($1)
	`

	// queryRelationExists checks that a table or view of the read model exists.
	queryRelationExists = `SELECT to_regclass($1) IS NOT NULL`
)

// requiredRelations must exist before the service starts.
var requiredRelations = []string{
	invoiceTable.name,
	orderTable.name,
	"vw_representantes",
	"vw_pessoas",
	"vw_itens",
}

// internal/domain/report/family.go
package report

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFamily = errors.New("unknown report family")

// Family names the query a saved report runs.
type Family string

const (
	FamilyAssets         Family = "assets"
	FamilyCheckouts      Family = "checkouts"
	FamilyMaintenance    Family = "maintenance"
	FamilyWarranties     Family = "warranties"
	FamilyLeases         Family = "leases"
	FamilyContracts      Family = "contracts"
	FamilyPurchaseOrders Family = "purchase_orders"
)

// FilterOp is the comparison a filter applies to its column.
type FilterOp string

const (
	OpEq   FilterOp = "eq"
	OpGte  FilterOp = "gte"
	OpLte  FilterOp = "lte"
	OpLike FilterOp = "like"
	OpIn   FilterOp = "in"
)

// Column is a selected output column. Expr is trusted SQL from the definition table.
type Column struct {
	Label string
	Expr  string
}

// Filter binds a user-facing filter key to a column and operator.
type Filter struct {
	Column string
	Op     FilterOp
}

// Definition is the fixed query shape for one family.
type Definition struct {
	Family  Family
	Title   string
	Table   string
	Joins   string
	Where   string
	Columns []Column
	Filters map[string]Filter
	OrderBy string
}

var definitions = map[Family]Definition{
	FamilyAssets: {
		Family: FamilyAssets,
		Title:  "Assets",
		Table:  "assets a",
		Joins:  "LEFT JOIN users u ON u.id = a.assigned_to",
		Columns: []Column{
			{Label: "Asset Tag", Expr: "a.asset_tag"},
			{Label: "Name", Expr: "a.name"},
			{Label: "Status", Expr: "a.status"},
			{Label: "Category", Expr: "a.category"},
			{Label: "Assigned To", Expr: "u.name"},
			{Label: "Purchase Date", Expr: "a.purchase_date"},
			{Label: "End Of Life", Expr: "a.eol_date"},
		},
		Filters: map[string]Filter{
			"status":         {Column: "a.status", Op: OpEq},
			"category":       {Column: "a.category", Op: OpEq},
			"assigned_to":    {Column: "a.assigned_to", Op: OpEq},
			"purchased_from": {Column: "a.purchase_date", Op: OpGte},
			"purchased_to":   {Column: "a.purchase_date", Op: OpLte},
			"search":         {Column: "a.name", Op: OpLike},
			"statuses":       {Column: "a.status", Op: OpIn},
		},
		OrderBy: "a.asset_tag",
	},
	FamilyCheckouts: {
		Family: FamilyCheckouts,
		Title:  "Checkouts",
		Table:  "checkouts c",
		Joins:  "JOIN assets a ON a.id = c.asset_id JOIN users u ON u.id = c.user_id",
		Columns: []Column{
			{Label: "Asset Tag", Expr: "a.asset_tag"},
			{Label: "Asset", Expr: "a.name"},
			{Label: "User", Expr: "u.name"},
			{Label: "Checked Out", Expr: "c.checked_out_at"},
			{Label: "Expected Checkin", Expr: "c.expected_checkin_at"},
			{Label: "Checked In", Expr: "c.checked_in_at"},
		},
		Filters: map[string]Filter{
			"user_id":  {Column: "c.user_id", Op: OpEq},
			"asset_id": {Column: "c.asset_id", Op: OpEq},
			"from":     {Column: "c.checked_out_at", Op: OpGte},
			"to":       {Column: "c.checked_out_at", Op: OpLte},
		},
		OrderBy: "c.checked_out_at DESC",
	},
	FamilyMaintenance: {
		Family: FamilyMaintenance,
		Title:  "Maintenance",
		Table:  "maintenance m",
		Joins:  "JOIN assets a ON a.id = m.asset_id",
		Columns: []Column{
			{Label: "Asset Tag", Expr: "a.asset_tag"},
			{Label: "Title", Expr: "m.title"},
			{Label: "Type", Expr: "m.maintenance_type"},
			{Label: "Scheduled For", Expr: "m.scheduled_for"},
			{Label: "Completed At", Expr: "m.completed_at"},
			{Label: "Cost", Expr: "m.cost"},
		},
		Filters: map[string]Filter{
			"type":     {Column: "m.maintenance_type", Op: OpEq},
			"asset_id": {Column: "m.asset_id", Op: OpEq},
			"from":     {Column: "m.scheduled_for", Op: OpGte},
			"to":       {Column: "m.scheduled_for", Op: OpLte},
			"supplier": {Column: "m.supplier", Op: OpLike},
		},
		OrderBy: "m.scheduled_for",
	},
	FamilyWarranties: {
		Family: FamilyWarranties,
		Title:  "Warranties",
		Table:  "warranties w",
		Joins:  "JOIN assets a ON a.id = w.asset_id",
		Columns: []Column{
			{Label: "Asset Tag", Expr: "a.asset_tag"},
			{Label: "Provider", Expr: "w.provider"},
			{Label: "Status", Expr: "w.status"},
			{Label: "Start Date", Expr: "w.start_date"},
			{Label: "End Date", Expr: "w.end_date"},
		},
		Filters: map[string]Filter{
			"status":     {Column: "w.status", Op: OpEq},
			"provider":   {Column: "w.provider", Op: OpLike},
			"expires_to": {Column: "w.end_date", Op: OpLte},
		},
		OrderBy: "w.end_date",
	},
	FamilyLeases: {
		Family: FamilyLeases,
		Title:  "Leases",
		Table:  "leases l",
		Joins:  "JOIN assets a ON a.id = l.asset_id",
		Columns: []Column{
			{Label: "Asset Tag", Expr: "a.asset_tag"},
			{Label: "Lessor", Expr: "l.lessor"},
			{Label: "Start Date", Expr: "l.start_date"},
			{Label: "End Date", Expr: "l.end_date"},
			{Label: "Monthly Cost", Expr: "l.monthly_cost"},
		},
		Filters: map[string]Filter{
			"lessor":     {Column: "l.lessor", Op: OpLike},
			"expires_to": {Column: "l.end_date", Op: OpLte},
		},
		OrderBy: "l.end_date",
	},
	FamilyContracts: {
		Family: FamilyContracts,
		Title:  "Contracts",
		Table:  "contracts ct",
		Columns: []Column{
			{Label: "Name", Expr: "ct.name"},
			{Label: "Vendor", Expr: "ct.vendor"},
			{Label: "Start Date", Expr: "ct.start_date"},
			{Label: "End Date", Expr: "ct.end_date"},
			{Label: "Value", Expr: "ct.value"},
		},
		Filters: map[string]Filter{
			"vendor":     {Column: "ct.vendor", Op: OpLike},
			"expires_to": {Column: "ct.end_date", Op: OpLte},
		},
		OrderBy: "ct.end_date",
	},
	FamilyPurchaseOrders: {
		Family: FamilyPurchaseOrders,
		Title:  "Purchase Orders",
		Table:  "purchase_orders po",
		Columns: []Column{
			{Label: "Number", Expr: "po.number"},
			{Label: "Supplier", Expr: "po.supplier"},
			{Label: "Status", Expr: "po.status"},
			{Label: "Ordered At", Expr: "po.ordered_at"},
			{Label: "Expected Delivery", Expr: "po.expected_delivery_at"},
			{Label: "Total", Expr: "po.total"},
		},
		Filters: map[string]Filter{
			"status":   {Column: "po.status", Op: OpEq},
			"supplier": {Column: "po.supplier", Op: OpLike},
			"from":     {Column: "po.ordered_at", Op: OpGte},
			"to":       {Column: "po.ordered_at", Op: OpLte},
		},
		OrderBy: "po.ordered_at DESC",
	},
}

// LookupDefinition resolves a family tag, tolerating case and surrounding spaces.
func LookupDefinition(f Family) (Definition, error) {
	key := Family(strings.ToLower(strings.TrimSpace(string(f))))
	def, ok := definitions[key]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownFamily, string(f))
	}
	return def, nil
}

// Families lists every known family.
func Families() []Family {
	return []Family{
		FamilyAssets,
		FamilyCheckouts,
		FamilyMaintenance,
		FamilyWarranties,
		FamilyLeases,
		FamilyContracts,
		FamilyPurchaseOrders,
	}
}

// Labels returns the column headers in order.
func (d Definition) Labels() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Label
	}
	return out
}

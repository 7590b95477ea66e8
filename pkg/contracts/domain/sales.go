package domain

import (
	"fmt"
	"time"
)

// Role is the canonical meaning assigned to a source column.
type Role string

const (
	RoleTimestamp   Role = "timestamp"
	RoleAmount      Role = "amount"
	RoleQuantity    Role = "quantity"
	RoleUnitPrice   Role = "unit_price"
	RoleProductID   Role = "product_id"
	RoleCustomerID  Role = "customer_id"
	RoleOrderID     Role = "order_id"
	RoleCountry     Role = "country"
	RoleDescription Role = "description"
)

// Roles lists every role in resolution priority order.
var Roles = []Role{
	RoleTimestamp,
	RoleOrderID,
	RoleProductID,
	RoleCustomerID,
	RoleQuantity,
	RoleUnitPrice,
	RoleAmount,
	RoleCountry,
	RoleDescription,
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// RawTable is an ingested table before any interpretation: column name to
// raw cell values. Columns keeps the source order.
type RawTable struct {
	Columns []string         `json:"columns"`
	Values  map[string][]any `json:"values"`
}

// NewRawTable builds an empty table with the given header.
func NewRawTable(columns ...string) *RawTable {
	t := &RawTable{
		Columns: append([]string(nil), columns...),
		Values:  make(map[string][]any, len(columns)),
	}
	for _, c := range columns {
		t.Values[c] = nil
	}
	return t
}

// AppendRow adds one row. Missing trailing cells are stored as nil.
func (t *RawTable) AppendRow(cells ...any) {
	for i, c := range t.Columns {
		var v any
		if i < len(cells) {
			v = cells[i]
		}
		t.Values[c] = append(t.Values[c], v)
	}
}

// RowCount returns the number of rows in the first column.
func (t *RawTable) RowCount() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Values[t.Columns[0]])
}

// Validate checks that every column exists and all columns are equally long.
func (t *RawTable) Validate() error {
	if t == nil {
		return fmt.Errorf("raw table is nil")
	}
	n := t.RowCount()
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
		vals, ok := t.Values[c]
		if !ok {
			return fmt.Errorf("column %q has no values", c)
		}
		if len(vals) != n {
			return fmt.Errorf("column %q has %d values, expected %d", c, len(vals), n)
		}
	}
	return nil
}

// Field identifies a Transaction field for missing-value tracking.
type Field uint16

const (
	FieldTimestamp Field = 1 << iota
	FieldAmount
	FieldQuantity
	FieldProductID
	FieldCustomerID
	FieldOrderID
	FieldCountry
	FieldDescription
)

// FieldSet is a bit set of fields.
type FieldSet uint16

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&FieldSet(f) != 0 }

// With returns the set with f added.
func (s FieldSet) With(f Field) FieldSet { return s | FieldSet(f) }

// Transaction is a single sale line after schema normalization. A field that
// was absent or could not be parsed is flagged in Missing.
type Transaction struct {
	Timestamp   time.Time `json:"timestamp"`
	Amount      float64   `json:"amount"`
	Quantity    int64     `json:"quantity"`
	ProductID   string    `json:"product_id,omitempty"`
	CustomerID  string    `json:"customer_id,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	Country     string    `json:"country,omitempty"`
	Description string    `json:"description,omitempty"`
	Missing     FieldSet  `json:"missing,omitempty"`
}

// UnmappedColumn is a source column that was not assigned a role.
type UnmappedColumn struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

const (
	UnmappedReasonNoMatch   = "unmapped"
	UnmappedReasonAmbiguous = "ambiguous"
)

// SchemaMapping is the outcome of column role resolution.
type SchemaMapping struct {
	Columns       map[Role]string  `json:"columns"`
	Unmapped      []UnmappedColumn `json:"unmapped,omitempty"`
	DerivedAmount bool             `json:"derived_amount"`
}

package schema

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// Overrides assigns roles to source columns explicitly, column name to role.
// Overrides take precedence over auto-detection.
type Overrides map[string]domain.Role

// Normalizer maps raw columns onto transaction fields.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "schema"))}
}

// Resolve decides which column serves each role. It fails with a schema
// error when the timestamp or the amount cannot be resolved; an amount is
// also satisfied by a quantity and unit price pair.
func (n *Normalizer) Resolve(table *domain.RawTable, overrides Overrides) (domain.SchemaMapping, error) {
	mapping := domain.SchemaMapping{Columns: make(map[domain.Role]string)}
	if err := table.Validate(); err != nil {
		return mapping, apperrors.NewSchemaError(err.Error())
	}

	claimed := make(map[string]domain.Role, len(table.Columns))
	exists := make(map[string]bool, len(table.Columns))
	for _, c := range table.Columns {
		exists[c] = true
	}

	// Iterate overrides in a stable order so error messages are deterministic.
	overrideCols := make([]string, 0, len(overrides))
	for col := range overrides {
		overrideCols = append(overrideCols, col)
	}
	sort.Strings(overrideCols)
	for _, col := range overrideCols {
		role := overrides[col]
		if !exists[col] {
			return mapping, apperrors.NewSchemaError(fmt.Sprintf("override column %q does not exist", col)).
				WithContext("column", col)
		}
		if !role.IsValid() {
			return mapping, apperrors.NewSchemaError(fmt.Sprintf("override for column %q names unknown role %q", col, role)).
				WithContext("column", col)
		}
		if other, taken := mapping.Columns[role]; taken {
			return mapping, apperrors.NewSchemaError(fmt.Sprintf("columns %q and %q are both mapped to %s", other, col, role)).
				WithContext("role", string(role))
		}
		mapping.Columns[role] = col
		claimed[col] = role
	}

	normalized := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		normalized[i] = normalizeHeader(c)
	}

	// Exact names first so that "Description" is not taken by a keyword
	// match on another role.
	for _, role := range domain.Roles {
		if _, done := mapping.Columns[role]; done {
			continue
		}
		for i, col := range table.Columns {
			if _, taken := claimed[col]; taken {
				continue
			}
			if roleAliases[role].matchesExact(normalized[i]) {
				mapping.Columns[role] = col
				claimed[col] = role
				break
			}
		}
	}
	for _, role := range keywordOrder {
		if _, done := mapping.Columns[role]; done {
			continue
		}
		for i, col := range table.Columns {
			if _, taken := claimed[col]; taken {
				continue
			}
			if roleAliases[role].matchesKeyword(normalized[i]) {
				mapping.Columns[role] = col
				claimed[col] = role
				break
			}
		}
	}

	for i, col := range table.Columns {
		if _, taken := claimed[col]; taken {
			continue
		}
		reason := domain.UnmappedReasonNoMatch
		for _, role := range domain.Roles {
			if roleAliases[role].matches(normalized[i]) {
				reason = domain.UnmappedReasonAmbiguous
				break
			}
		}
		mapping.Unmapped = append(mapping.Unmapped, domain.UnmappedColumn{Column: col, Reason: reason})
	}

	if _, ok := mapping.Columns[domain.RoleTimestamp]; !ok {
		return mapping, apperrors.NewSchemaError(
			fmt.Sprintf("no column resolves to role %s; available columns: %s", domain.RoleTimestamp, strings.Join(table.Columns, ", "))).
			WithContext("role", string(domain.RoleTimestamp))
	}
	if _, ok := mapping.Columns[domain.RoleAmount]; !ok {
		_, hasQty := mapping.Columns[domain.RoleQuantity]
		_, hasPrice := mapping.Columns[domain.RoleUnitPrice]
		if !hasQty || !hasPrice {
			return mapping, apperrors.NewSchemaError(
				fmt.Sprintf("no column resolves to role %s and no quantity and unit price pair to derive it; available columns: %s",
					domain.RoleAmount, strings.Join(table.Columns, ", "))).
				WithContext("role", string(domain.RoleAmount))
		}
		mapping.DerivedAmount = true
	}

	return mapping, nil
}

// Normalize resolves the mapping and converts every row into a transaction
// candidate. Rows are never rejected here; unparseable fields are flagged in
// Transaction.Missing for the cleaner to judge.
func (n *Normalizer) Normalize(ctx context.Context, table *domain.RawTable, overrides Overrides) ([]domain.Transaction, domain.SchemaMapping, error) {
	mapping, err := n.Resolve(table, overrides)
	if err != nil {
		return nil, mapping, err
	}

	column := func(role domain.Role) []any {
		if col, ok := mapping.Columns[role]; ok {
			return table.Values[col]
		}
		return nil
	}
	timestamps := column(domain.RoleTimestamp)
	amounts := column(domain.RoleAmount)
	quantities := column(domain.RoleQuantity)
	prices := column(domain.RoleUnitPrice)
	products := column(domain.RoleProductID)
	customers := column(domain.RoleCustomerID)
	orders := column(domain.RoleOrderID)
	countries := column(domain.RoleCountry)
	descriptions := column(domain.RoleDescription)

	rows := table.RowCount()
	out := make([]domain.Transaction, rows)
	for i := 0; i < rows; i++ {
		var tx domain.Transaction

		if ts, ok := parseTime(timestamps[i]); ok {
			tx.Timestamp = ts
		} else {
			tx.Missing = tx.Missing.With(domain.FieldTimestamp)
		}

		qtyOK := false
		if quantities != nil {
			tx.Quantity, qtyOK = parseQuantity(quantities[i])
		}
		if !qtyOK {
			tx.Quantity = 1
			tx.Missing = tx.Missing.With(domain.FieldQuantity)
		}

		if mapping.DerivedAmount {
			price, priceOK := parseDecimal(prices[i])
			if qtyOK && priceOK {
				tx.Amount = price.Mul(decimal.NewFromInt(tx.Quantity)).InexactFloat64()
			} else {
				tx.Amount = math.NaN()
				tx.Missing = tx.Missing.With(domain.FieldAmount)
			}
		} else if amount, ok := parseAmount(amounts[i]); ok {
			tx.Amount = amount
		} else {
			tx.Amount = amount
			tx.Missing = tx.Missing.With(domain.FieldAmount)
		}

		tx.ProductID = identifier(products, i, domain.FieldProductID, &tx.Missing)
		tx.CustomerID = identifier(customers, i, domain.FieldCustomerID, &tx.Missing)
		tx.OrderID = identifier(orders, i, domain.FieldOrderID, &tx.Missing)
		tx.Country = identifier(countries, i, domain.FieldCountry, &tx.Missing)
		tx.Description = identifier(descriptions, i, domain.FieldDescription, &tx.Missing)

		out[i] = tx
	}

	n.logger.DebugContext(ctx, "schema resolved",
		slog.Int("rows", rows),
		slog.Any("columns", mapping.Columns),
		slog.Int("unmapped", len(mapping.Unmapped)),
		slog.Bool("derived_amount", mapping.DerivedAmount))

	return out, mapping, nil
}

func identifier(values []any, i int, field domain.Field, missing *domain.FieldSet) string {
	if values != nil {
		if s, ok := parseIdentifier(values[i]); ok {
			return s
		}
	}
	*missing = missing.With(field)
	return ""
}

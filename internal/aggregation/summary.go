package aggregation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// unknownCountry matches the cleaner's placeholder for an absent country.
const unknownCountry = "Unknown"

// Summarize computes headline KPIs. Orders count distinct order ids; rows
// without an order id count as one order each. Placeholder customers are not
// counted.
func Summarize(txs []domain.Transaction) domain.Summary {
	var s domain.Summary
	if len(txs) == 0 {
		return s
	}

	revenue := decimal.Zero
	var orders orderSet
	customers := make(map[string]struct{})
	s.FirstTransaction, s.LastTransaction = txs[0].Timestamp, txs[0].Timestamp

	for _, tx := range txs {
		revenue = revenue.Add(decimal.NewFromFloat(tx.Amount))
		s.UnitsSold += tx.Quantity

		orders.add(tx)
		if tx.CustomerID != "" && !tx.Missing.Has(domain.FieldCustomerID) {
			customers[tx.CustomerID] = struct{}{}
		}
		if tx.Timestamp.Before(s.FirstTransaction) {
			s.FirstTransaction = tx.Timestamp
		}
		if tx.Timestamp.After(s.LastTransaction) {
			s.LastTransaction = tx.Timestamp
		}
	}

	s.TotalRevenue = revenue.InexactFloat64()
	s.TotalOrders = orders.count()
	s.UniqueCustomers = len(customers)
	if s.TotalOrders > 0 {
		s.AverageOrderValue = revenue.Div(decimal.NewFromInt(int64(s.TotalOrders))).Round(2).InexactFloat64()
	}
	return s
}

// orderSet counts distinct order ids. Lines without an order id count as one
// order each, as in Summarize.
type orderSet struct {
	ids       map[string]struct{}
	anonymous int
}

func (o *orderSet) add(tx domain.Transaction) {
	if tx.OrderID == "" || tx.Missing.Has(domain.FieldOrderID) {
		o.anonymous++
		return
	}
	if o.ids == nil {
		o.ids = make(map[string]struct{})
	}
	o.ids[tx.OrderID] = struct{}{}
}

func (o *orderSet) count() int { return len(o.ids) + o.anonymous }

// productKey groups by product id, falling back to the description when the
// id is absent. Rows with neither are not attributable to a product.
func productKey(tx domain.Transaction) (id, description string, ok bool) {
	hasDesc := tx.Description != "" && !tx.Missing.Has(domain.FieldDescription)
	if tx.ProductID != "" && !tx.Missing.Has(domain.FieldProductID) {
		if hasDesc {
			return tx.ProductID, tx.Description, true
		}
		return tx.ProductID, "", true
	}
	if hasDesc {
		return "", tx.Description, true
	}
	return "", "", false
}

// TopProducts ranks products by revenue, highest first. Products are keyed
// by id, or by description when the id is absent. Orders counts the distinct
// orders containing the product. Ties break on product id, then description.
func TopProducts(txs []domain.Transaction, n int) []domain.ProductSales {
	if n <= 0 {
		return nil
	}

	type key struct{ id, description string }
	type acc struct {
		revenue     decimal.Decimal
		units       int64
		orders      orderSet
		description string
	}
	byProduct := make(map[key]*acc)
	var order []key
	for _, tx := range txs {
		id, desc, ok := productKey(tx)
		if !ok {
			continue
		}
		k := key{id: id}
		if id == "" {
			k.description = desc
		}
		p, found := byProduct[k]
		if !found {
			p = &acc{}
			byProduct[k] = p
			order = append(order, k)
		}
		p.revenue = p.revenue.Add(decimal.NewFromFloat(tx.Amount))
		p.units += tx.Quantity
		p.orders.add(tx)
		if p.description == "" {
			p.description = desc
		}
	}

	out := make([]domain.ProductSales, 0, len(byProduct))
	for _, k := range order {
		p := byProduct[k]
		out = append(out, domain.ProductSales{
			ProductID:   k.id,
			Description: p.description,
			Revenue:     p.revenue.InexactFloat64(),
			Units:       p.units,
			Orders:      p.orders.count(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Description < out[j].Description
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// SalesByCountry totals revenue and distinct orders per country, highest
// revenue first. Rows without a country are grouped under the cleaner's
// placeholder. It returns nil when no row carries a country at all.
func SalesByCountry(txs []domain.Transaction) []domain.CountrySales {
	type acc struct {
		revenue decimal.Decimal
		orders  orderSet
	}
	byCountry := make(map[string]*acc)
	known := false
	for _, tx := range txs {
		country := tx.Country
		if tx.Missing.Has(domain.FieldCountry) || country == "" {
			country = unknownCountry
		} else {
			known = true
		}
		c, ok := byCountry[country]
		if !ok {
			c = &acc{}
			byCountry[country] = c
		}
		c.revenue = c.revenue.Add(decimal.NewFromFloat(tx.Amount))
		c.orders.add(tx)
	}
	if !known {
		return nil
	}

	out := make([]domain.CountrySales, 0, len(byCountry))
	for country, c := range byCountry {
		out = append(out, domain.CountrySales{
			Country: country,
			Revenue: c.revenue.InexactFloat64(),
			Orders:  c.orders.count(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Country < out[j].Country
	})
	return out
}

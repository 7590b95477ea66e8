package schema

import (
	"strings"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// aliases lists, per role, normalized header names that match exactly and
// keywords that match by containment.
type aliases struct {
	exact    []string
	keywords []string
}

var roleAliases = map[domain.Role]aliases{
	domain.RoleTimestamp: {
		exact: []string{"timestamp", "date", "datetime", "invoicedate", "orderdate", "transactiondate",
			"purchasedate", "saledate", "createdat", "ordertime", "time"},
		keywords: []string{"date", "time", "createdat"},
	},
	domain.RoleOrderID: {
		exact:    []string{"invoiceno", "invoice", "orderid", "ordernumber", "orderno", "transactionid", "receipt", "receiptid"},
		keywords: []string{"invoice", "order", "receipt", "transaction"},
	},
	domain.RoleProductID: {
		exact:    []string{"stockcode", "productid", "sku", "itemcode", "productcode", "itemid", "asin"},
		keywords: []string{"sku", "stockcode", "productid", "productcode", "itemcode", "itemid"},
	},
	domain.RoleCustomerID: {
		exact:    []string{"customerid", "customer", "clientid", "userid", "accountid", "buyerid"},
		keywords: []string{"customer", "client", "buyer"},
	},
	domain.RoleQuantity: {
		exact:    []string{"quantity", "qty", "units", "quantitysold", "items", "count"},
		keywords: []string{"qty", "quantity"},
	},
	domain.RoleUnitPrice: {
		exact:    []string{"unitprice", "price", "itemprice", "rate", "cost", "priceeach"},
		keywords: []string{"price"},
	},
	domain.RoleAmount: {
		exact: []string{"amount", "total", "totalprice", "totalamount", "revenue", "sales", "linetotal",
			"subtotal", "saleamount", "ordertotal", "value"},
		keywords: []string{"total", "revenue", "amount", "sales", "value"},
	},
	domain.RoleCountry: {
		exact:    []string{"country", "region", "location", "territory", "shippingcountry", "billingcountry"},
		keywords: []string{"country", "region"},
	},
	domain.RoleDescription: {
		exact:    []string{"description", "productname", "producttitle", "itemname", "product", "itemdescription", "title", "name"},
		keywords: []string{"description", "name", "title"},
	},
}

// keywordOrder is the role order of the containment pass. The required roles
// go first so "Order Amount" or "Transaction Value" is read as the amount and
// not as an order id.
var keywordOrder = []domain.Role{
	domain.RoleTimestamp,
	domain.RoleAmount,
	domain.RoleOrderID,
	domain.RoleProductID,
	domain.RoleCustomerID,
	domain.RoleQuantity,
	domain.RoleUnitPrice,
	domain.RoleCountry,
	domain.RoleDescription,
}

// normalizeHeader lower-cases a header and strips separators so that
// "Invoice Date", "invoice_date" and "InvoiceDate" compare equal.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '_', '-', '.', '/', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (a aliases) matchesExact(normalized string) bool {
	for _, e := range a.exact {
		if normalized == e {
			return true
		}
	}
	return false
}

func (a aliases) matchesKeyword(normalized string) bool {
	for _, k := range a.keywords {
		if strings.Contains(normalized, k) {
			return true
		}
	}
	return false
}

func (a aliases) matches(normalized string) bool {
	return a.matchesExact(normalized) || a.matchesKeyword(normalized)
}

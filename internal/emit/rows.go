package emit

import (
	"strconv"
	"time"

	"github.com/eurostyle/datagen/internal/model"
)

// Row builders: one per record type, cells in the table's column order.
// Dates are ISO (2006-01-02), timestamps RFC 3339, money StringFixed(2).

const dateFmt = "2006-01-02"

func CustomerRow(c model.Customer) []string {
	return []string{
		string(c.ID), c.Name, c.Email, c.Country, c.City, c.Street,
		c.PostalCode, c.Segment, c.SignupDate.Format(dateFmt),
	}
}

func ProductRow(p model.Product) []string {
	return []string{
		string(p.ID), p.Name, p.Category,
		p.Price.StringFixed(2), p.Cost.StringFixed(2), p.Status,
	}
}

func StoreRow(s model.Store) []string {
	return []string{string(s.ID), s.Name, s.Country, s.City, s.Channel}
}

func OrderRow(o model.Order, display string) []string {
	return []string{
		string(o.ID), string(o.CustomerID), string(o.StoreID), o.Country,
		o.Date.Format(time.RFC3339),
		o.Subtotal.StringFixed(2), o.Tax.StringFixed(2),
		o.Shipping.StringFixed(2), o.Discount.StringFixed(2),
		o.Total.StringFixed(2), o.VATRate.String(),
		o.PaymentMethod, o.Currency, display,
	}
}

func OrderLineRow(l model.OrderLine) []string {
	return []string{
		string(l.OrderID), strconv.Itoa(l.LineNo), string(l.ProductID),
		strconv.Itoa(l.Quantity), l.UnitPrice.StringFixed(2), l.LineTotal.StringFixed(2),
	}
}

func EmployeeRow(e model.Employee) []string {
	return []string{
		string(e.ID), e.Name, e.Country, string(e.StoreID), e.Role,
		e.Salary.StringFixed(2), e.HireDate.Format(dateFmt), e.Status,
	}
}

func PayrollRow(p model.PayrollRun) []string {
	return []string{
		string(p.ID), string(p.EmployeeID), p.Country, p.Period,
		p.Date.Format(dateFmt),
		p.Gross.StringFixed(2), p.Withholding.StringFixed(2), p.Net.StringFixed(2),
	}
}

func SessionRow(s model.Session) []string {
	return []string{
		string(s.ID), s.Token, string(s.CustomerID), s.Country, s.Device,
		s.Referrer, s.StartedAt.Format(time.RFC3339),
		strconv.Itoa(s.Duration), strconv.Itoa(s.Pageviews), string(s.OrderID),
	}
}

func POSRow(p model.POSTransaction, display string) []string {
	return []string{
		string(p.ID), string(p.StoreID), string(p.EmployeeID), p.Country,
		p.Date.Format(time.RFC3339),
		p.Subtotal.StringFixed(2), p.Tax.StringFixed(2),
		p.Discount.StringFixed(2), p.Total.StringFixed(2), p.VATRate.String(),
		p.PaymentMethod, p.Currency, display,
	}
}

func JournalHeaderRow(j model.JournalEntry) []string {
	return []string{
		string(j.ID), string(j.SourceKind), string(j.SourceID),
		j.Date.Format(dateFmt),
		j.TotalDebit.StringFixed(2), j.TotalCredit.StringFixed(2),
	}
}

func JournalLineRow(l model.JournalLine) []string {
	return []string{
		string(l.JournalID), strconv.Itoa(l.LineNo), l.Account,
		l.Debit.StringFixed(2), l.Credit.StringFixed(2), l.Memo,
	}
}

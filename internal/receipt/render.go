package receipt

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SelwynIsLoading/kiosk-payments/internal/domain"
)

// The thermal printer hands each line to a microcontroller with a 64-byte
// serial buffer, so the layout is fixed-width and free of separator runs.
const (
	lineWidth    = 28
	itemNameMax  = 16
	qtyColWidth  = 3
	costColWidth = 8
)

// Renderer turns an order snapshot into the immutable line payload of a
// print job.
type Renderer struct {
	name    string
	address string
	phone   string
}

func NewRenderer(name, address, phone string) *Renderer {
	return &Renderer{name: name, address: address, phone: phone}
}

// Render lays out one receipt. The result is what the bridge sends to the
// printer verbatim, one PRINT:LINE command per element.
func (r *Renderer) Render(o *domain.ReceiptOrder) []string {
	var lines []string

	lines = append(lines, center(safeText(r.name)))
	if r.address != "" {
		lines = append(lines, center(safeText(r.address)))
	}
	if r.phone != "" {
		lines = append(lines, center(safeText(r.phone)))
	}
	lines = append(lines, "", "")

	lines = append(lines, "Order: "+truncate(safeText(o.OrderKey), 20))
	lines = append(lines, "Date: "+truncate(o.OrderDate.Format("2006-01-02 15:04"), 25))
	if o.CustomerName != "" {
		lines = append(lines, "Cust: "+truncate(safeText(o.CustomerName), 20))
	}
	lines = append(lines, "", "")

	lines = append(lines, "ITEM             QTY  PRICE")
	lines = append(lines, "")
	for _, item := range o.Items {
		lines = append(lines, itemLine(item))
	}
	lines = append(lines, "", "")

	lines = append(lines, amountLine("Subtotal:", o.SubTotal))
	if o.Tax.IsPositive() {
		lines = append(lines, amountLine("VAT:", o.Tax))
	}
	lines = append(lines, "")
	lines = append(lines, amountLine("TOTAL:", o.Total))
	lines = append(lines, "", "")

	lines = append(lines, "Pay: "+truncate(safeText(o.PaymentMethod), 15))
	lines = append(lines, "")
	if o.AmountPaid.IsPositive() {
		lines = append(lines, amountLine("Paid:", o.AmountPaid))
		if o.Change.IsPositive() {
			lines = append(lines, amountLine("Change:", o.Change))
		}
	}
	lines = append(lines, "", "")

	lines = append(lines, center("THANK YOU!"))
	lines = append(lines, center("Please come again"))
	lines = append(lines, "")
	lines = append(lines, center("Have a great day!"))
	lines = append(lines, "", "", "")

	return lines
}

func itemLine(item domain.ReceiptItem) string {
	name := truncate(safeText(item.ProductName), itemNameMax)
	name += strings.Repeat(" ", itemNameMax-len(name))

	qty := rightAlign(strconv.Itoa(item.Quantity), qtyColWidth)
	cost := rightAlign(item.LineTotal.StringFixed(2), costColWidth)
	return name + " " + qty + cost
}

// amountLine right-aligns a money value so that label plus padding plus
// digits always come to one printable line.
func amountLine(label string, v decimal.Decimal) string {
	return label + rightAlign(v.StringFixed(2), lineWidth-1-len(label))
}

func center(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= lineWidth {
		return s[:lineWidth]
	}
	left := (lineWidth - len(s)) / 2
	right := lineWidth - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func rightAlign(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// safeText replaces anything outside printable ASCII with '?'. The printer
// firmware mangles multi-byte characters.
func safeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

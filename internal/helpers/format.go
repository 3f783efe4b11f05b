package helpers

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR renders an amount with Indian digit grouping and two decimal
// places, e.g. 1234567.5 becomes "12,34,567.50". Used on invoices and in
// outbound email bodies.
func FormatINR(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	if negative {
		fixed = fixed[1:]
	}

	parts := strings.SplitN(fixed, ".", 2)
	intPart := parts[0]

	grouped := groupIndian(intPart)
	if negative {
		grouped = "-" + grouped
	}
	return grouped + "." + parts[1]
}

// groupIndian applies the 3-then-2 grouping: the last three digits form one
// group, then pairs of digits from right to left.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	groups = append(groups, tail)
	return strings.Join(groups, ",")
}

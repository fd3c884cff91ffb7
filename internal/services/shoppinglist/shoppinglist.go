// Package shoppinglist sums the ingredients of every recipe in a user's cart
// and renders them as a plain-text report.
package shoppinglist

import (
	"fmt"
	"sort"
	"strings"
)

const (
	header     = "Список покупок:"
	totalLabel = "Всего ингредиентов"
)

var rule = strings.Repeat("=", 50)

// Line is one recipe ingredient reached through the cart.
type Line struct {
	Name   string
	Unit   string
	Amount int
}

// Item is the total for one (name, unit) pair.
type Item struct {
	Name  string
	Unit  string
	Total int
}

type key struct {
	name string
	unit string
}

// Aggregate groups lines by (name, unit) and sums their amounts. The same name
// with a different unit stays a separate item. Items are ordered byte-wise by
// name, then unit.
func Aggregate(lines []Line) []Item {
	totals := make(map[key]int, len(lines))
	for _, l := range lines {
		totals[key{name: l.Name, unit: l.Unit}] += l.Amount
	}
	items := make([]Item, 0, len(totals))
	for k, total := range totals {
		items = append(items, Item{Name: k.name, Unit: k.unit, Total: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Unit < items[j].Unit
	})
	return items
}

// Render formats items as the downloadable shopping list. An empty slice
// still yields the header, both rules and a zero count.
func Render(items []Item) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n\n")
	for _, it := range items {
		fmt.Fprintf(&b, "%s (%s) - %d\n", it.Name, it.Unit, it.Total)
	}
	b.WriteString("\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "\n%s: %d", totalLabel, len(items))
	return b.String()
}

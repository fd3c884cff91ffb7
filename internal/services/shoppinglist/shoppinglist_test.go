package shoppinglist

import (
	"strings"
	"testing"
)

func TestAggregateSumsByNameAndUnit(t *testing.T) {
	items := Aggregate([]Line{
		{Name: "Sugar", Unit: "kg", Amount: 1},
		{Name: "Salt", Unit: "g", Amount: 5},
		{Name: "Sugar", Unit: "kg", Amount: 1},
		{Name: "Salt", Unit: "g", Amount: 10},
	})
	want := []Item{
		{Name: "Salt", Unit: "g", Total: 15},
		{Name: "Sugar", Unit: "kg", Total: 2},
	}
	if len(items) != len(want) {
		t.Fatalf("items=%v want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("items[%d]=%v want %v", i, items[i], want[i])
		}
	}
}

func TestAggregateKeepsDifferentUnitsApart(t *testing.T) {
	items := Aggregate([]Line{
		{Name: "Milk", Unit: "ml", Amount: 200},
		{Name: "Milk", Unit: "cup", Amount: 1},
		{Name: "Milk", Unit: "ml", Amount: 100},
	})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", items)
	}
	if items[0].Unit != "cup" || items[0].Total != 1 {
		t.Fatalf("items[0]=%v", items[0])
	}
	if items[1].Unit != "ml" || items[1].Total != 300 {
		t.Fatalf("items[1]=%v", items[1])
	}
}

func TestAggregateSortsByteWise(t *testing.T) {
	items := Aggregate([]Line{
		{Name: "яблоко", Unit: "шт", Amount: 1},
		{Name: "apple", Unit: "pc", Amount: 1},
		{Name: "Banana", Unit: "pc", Amount: 1},
	})
	got := []string{items[0].Name, items[1].Name, items[2].Name}
	want := []string{"Banana", "apple", "яблоко"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v want %v", got, want)
		}
	}
}

func TestRender(t *testing.T) {
	out := Render([]Item{
		{Name: "Salt", Unit: "g", Total: 15},
		{Name: "Sugar", Unit: "kg", Total: 2},
	})
	rule := strings.Repeat("=", 50)
	want := "Список покупок:\n" + rule + "\n\n" +
		"Salt (g) - 15\n" +
		"Sugar (kg) - 2\n" +
		"\n" + rule + "\nВсего ингредиентов: 2"
	if out != want {
		t.Fatalf("render mismatch:\n%q\nwant\n%q", out, want)
	}
}

func TestRenderEmpty(t *testing.T) {
	out := Render(Aggregate(nil))
	rule := strings.Repeat("=", 50)
	want := "Список покупок:\n" + rule + "\n\n\n" + rule + "\nВсего ингредиентов: 0"
	if out != want {
		t.Fatalf("render mismatch:\n%q\nwant\n%q", out, want)
	}
}

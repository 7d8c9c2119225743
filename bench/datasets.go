// Package bench measures fastpack against other codecs on fixed datasets.
package bench

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/zoobzio/fastpack"
)

// Dataset is a named value to benchmark.
type Dataset struct {
	Name string
	// Value is the data every codec encodes.
	Value any
	// Extended datasets use types only fastpack carries natively; other
	// codecs see them lowered and their sizes are not comparable.
	Extended bool
}

// Simple is a three-field mapping.
func Simple() *fastpack.Map {
	return fastpack.MapOf("name", "Ana", "age", int64(30), "active", true)
}

// Complex is a mapping with nested lists and mappings.
func Complex() *fastpack.Map {
	history := make([]any, 10)
	for i := range history {
		history[i] = int64(i + 1)
	}
	return fastpack.MapOf(
		"id", int64(12345),
		"name", "Test User",
		"email", "user@example.com",
		"active", true,
		"score", 95.5,
		"tags", []any{"golang", "developer", "senior"},
		"settings", fastpack.MapOf(
			"theme", "dark",
			"notifications", true,
			"language", "pt-BR",
		),
		"history", history,
	)
}

// LargeList is n small mappings.
func LargeList(n int) []any {
	items := make([]any, n)
	for i := range items {
		items[i] = fastpack.MapOf("id", int64(i), "value", fmt.Sprintf("item_%d", i))
	}
	return items
}

// Extended exercises timestamps, decimals, UUIDs, sets and tuples.
func Extended() *fastpack.Map {
	amount, _, _ := apd.NewFromString("99.99")
	return fastpack.MapOf(
		"timestamp", time.Date(2024, 12, 15, 14, 30, 0, 0, time.UTC),
		"amount", amount,
		"id", uuid.MustParse("12345678-1234-5678-1234-567812345678"),
		"tags", fastpack.NewSet("new", "featured", "sale"),
		"coords", fastpack.Tuple{int64(10), int64(20), int64(30)},
	)
}

// Datasets returns the standard datasets in report order.
func Datasets() []Dataset {
	return []Dataset{
		{Name: "simple", Value: Simple()},
		{Name: "complex", Value: Complex()},
		{Name: "large_list", Value: LargeList(100)},
		{Name: "extended", Value: Extended(), Extended: true},
	}
}

// Lookup returns the standard dataset called name.
func Lookup(name string) (Dataset, bool) {
	for _, d := range Datasets() {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

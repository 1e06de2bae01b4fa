package crosscheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/csmark/csharp/parser"
)

const sample = `using System;

namespace Shop
{
    public class Cart<T> : IDisposable where T : class
    {
        private enum State { Open, Closed }

        public void Dispose() { }
    }

    namespace Billing
    {
        public record Invoice(int Number);
        public delegate void Paid(Invoice invoice);
    }
}
`

const fileScoped = `namespace Shop.Orders;

public interface IOrderStore
{
    void Save();
}

public struct OrderId { }
`

func TestCheckAgrees(t *testing.T) {
	for name, src := range map[string]string{"block": sample, "file scoped": fileScoped} {
		t.Run(name, func(t *testing.T) {
			tree, err := parser.Scan(src)
			require.NoError(t, err)

			res, err := Check([]byte(src), tree)
			require.NoError(t, err)
			assert.False(t, res.GrammarError)
			assert.True(t, res.Agree(), "only markers: %v, only grammar: %v", res.OnlyMarkers, res.OnlyGrammar)
		})
	}
}

func TestMarkerDecls(t *testing.T) {
	tree, err := parser.Scan(sample)
	require.NoError(t, err)

	var names []string
	for _, d := range MarkerDecls(tree) {
		names = append(names, d.FullName)
	}
	want := []string{
		"Shop",
		"Shop.Cart",
		"Shop.Cart.State",
		"Shop.Billing",
		"Shop.Billing.Invoice",
		"Shop.Billing.Paid",
	}
	assert.Equal(t, want, names)
}

func TestCompare(t *testing.T) {
	markers := []Decl{
		{Kind: parser.KindClass, FullName: "A", Line: 1},
		{Kind: parser.KindClass, FullName: "P", Line: 3},
		{Kind: parser.KindClass, FullName: "P", Line: 9},
		{Kind: parser.KindStruct, FullName: "S", Line: 5},
	}
	grammar := []Decl{
		{Kind: parser.KindClass, FullName: "A", Line: 1},
		{Kind: parser.KindClass, FullName: "P", Line: 3},
		{Kind: parser.KindClass, FullName: "S", Line: 5},
		{Kind: parser.KindEnum, FullName: "E", Line: 7},
	}

	res := Compare(markers, grammar)
	assert.Len(t, res.Matched, 2)
	assert.Equal(t, []Decl{
		{Kind: parser.KindClass, FullName: "P", Line: 9},
		{Kind: parser.KindStruct, FullName: "S", Line: 5},
	}, res.OnlyMarkers)
	assert.Equal(t, []Decl{
		{Kind: parser.KindClass, FullName: "S", Line: 5},
		{Kind: parser.KindEnum, FullName: "E", Line: 7},
	}, res.OnlyGrammar)
	assert.False(t, res.Agree())
}

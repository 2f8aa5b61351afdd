package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIntDecodesDriftedQuantities(t *testing.T) {
	cases := []struct {
		in   string
		want FlexInt
	}{
		{`3`, 3},
		{`"3"`, 3},
		{`"2.0"`, 2},
		{`null`, 0},
		{`""`, 0},
	}
	for _, c := range cases {
		var f FlexInt
		require.NoError(t, json.Unmarshal([]byte(c.in), &f), "input %s", c.in)
		assert.Equal(t, c.want, f, "input %s", c.in)
	}

	var f FlexInt
	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &f))
}

func TestFlexStringDecodesNumbersAndStrings(t *testing.T) {
	var s FlexString
	require.NoError(t, json.Unmarshal([]byte(`42`), &s))
	assert.Equal(t, FlexString("42"), s)
	require.NoError(t, json.Unmarshal([]byte(`"p1"`), &s))
	assert.Equal(t, FlexString("p1"), s)
	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.Equal(t, FlexString(""), s)
}

func TestFlexStringUnescapes(t *testing.T) {
	cases := []struct {
		in   string
		want FlexString
	}{
		{`"a\"b"`, `a"b`},
		{`"A"`, "A"},
		{`"sku\\7"`, `sku\7`},
	}
	for _, c := range cases {
		var s FlexString
		require.NoError(t, json.Unmarshal([]byte(c.in), &s), "input %s", c.in)
		assert.Equal(t, c.want, s, "input %s", c.in)
	}
}

func TestTotal(t *testing.T) {
	items := []Item{
		{Price: decimal.NewFromFloat(9.99), Quantity: 2},
		{Price: decimal.NewFromInt(5), Quantity: 1},
	}
	assert.True(t, Total(items).Equal(decimal.NewFromFloat(24.98)))
	assert.True(t, Total(nil).IsZero())
}

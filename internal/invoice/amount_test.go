package invoice

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"empty string", "", "0"},
		{"garbage", "abc", "0"},
		{"numeric string", "125.50", "125.5"},
		{"padded string", "  80 ", "80"},
		{"currency string", "$1,200.00", "1200"},
		{"float", 99.99, "99.99"},
		{"int", 40, "40"},
		{"json number", json.Number("12.3"), "12.3"},
		{"unsupported type", []int{1}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.in)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmountUnmarshalJSONIsLenient(t *testing.T) {
	var items []LineItemInput
	body := `[{"amount":"150.25"},{"amount":""},{"amount":"n/a"},{"amount":75},{"amount":null},{}]`
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"150.25", "0", "0", "75", "0", "0"}
	for i, w := range want {
		if !items[i].Amount.Equal(decimal.RequireFromString(w)) {
			t.Errorf("item %d amount = %s, want %s", i, items[i].Amount, w)
		}
	}
}

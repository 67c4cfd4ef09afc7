package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Currency  string `validate:"omitempty,iso4217"`
	Type      string `validate:"omitempty,account_type"`
	AssetType string `validate:"omitempty,asset_type"`
	Kind      string `validate:"omitempty,schedule_kind"`
	Frequency string `validate:"omitempty,frequency"`
	Horizon   string `validate:"omitempty,horizon"`
	Date      string `validate:"omitempty,calendar_date"`
}

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	RegisterWith(v)

	tests := []struct {
		name  string
		input sample
		valid bool
	}{
		{"empty", sample{}, true},
		{"currency", sample{Currency: "HUF"}, true},
		{"lowercase_currency", sample{Currency: "huf"}, false},
		{"unknown_currency", sample{Currency: "XXX"}, false},
		{"cash", sample{Type: "cash"}, true},
		{"investment", sample{Type: "investment"}, true},
		{"credit_card", sample{Type: "credit_card"}, false},
		{"etf", sample{AssetType: "etf"}, true},
		{"bad_asset", sample{AssetType: "art"}, false},
		{"transfer_kind", sample{Kind: "transfer"}, true},
		{"bad_kind", sample{Kind: "payment"}, false},
		{"weekly", sample{Frequency: "weekly"}, true},
		{"yearly", sample{Frequency: "yearly"}, false},
		{"week", sample{Horizon: "week"}, true},
		{"year", sample{Horizon: "year"}, false},
		{"day", sample{Date: "2024-02-29"}, true},
		{"rfc3339", sample{Date: "2024-02-29T10:00:00Z"}, true},
		{"bad_day", sample{Date: "2023-02-29"}, false},
		{"garbage", sample{Date: "tomorrow"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

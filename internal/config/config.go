// Package config loads and validates the declarative generation config.
//
// The document is YAML. Before decoding into the typed Config struct it is
// unified with an embedded CUE schema; structural problems (missing keys,
// negative weights, malformed rates) are rejected here, before any
// generation starts, so a run can never fail midway on bad config.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

//go:embed demo.yaml
var demoYAML []byte

// Config is the validated, typed generation configuration.
// Immutable for the duration of a run.
type Config struct {
	Mode  string             `yaml:"mode"`
	Days  int                `yaml:"days"`
	Modes map[string]float64 `yaml:"modes"`

	Counts    Counts    `yaml:"counts"`
	Countries []Country `yaml:"countries"`

	PaymentMethods    []Weight `yaml:"payment_methods"`
	POSPaymentMethods []Weight `yaml:"pos_payment_methods"`
	Devices           []Weight `yaml:"devices"`
	Referrers         []Weight `yaml:"referrers"`

	Categories  []Category   `yaml:"categories"`
	SalaryBands []SalaryBand `yaml:"salary_bands"`

	Order          OrderSpec      `yaml:"order"`
	Accounts       Accounts       `yaml:"accounts"`
	Reconciliation Reconciliation `yaml:"reconciliation"`

	UpdateFraction float64 `yaml:"update_fraction"`
}

// Counts holds base record counts (scaled by mode) and per-business-day
// event volumes.
type Counts struct {
	Customers      int `yaml:"customers"`
	Products       int `yaml:"products"`
	Stores         int `yaml:"stores"`
	Employees      int `yaml:"employees"`
	OrdersPerDay   int `yaml:"orders_per_day"`
	POSPerDay      int `yaml:"pos_per_day"`
	SessionsPerDay int `yaml:"sessions_per_day"`
}

// Country is one market: share weight, tax rates, currency and locale.
type Country struct {
	Code           string  `yaml:"code"`
	Weight         float64 `yaml:"weight"`
	VATRate        float64 `yaml:"vat_rate"`
	PayrollTaxRate float64 `yaml:"payroll_tax_rate"`
	Currency       string  `yaml:"currency"`
	Locale         string  `yaml:"locale"`
}

// Weight is one category of a weighted distribution spec.
type Weight struct {
	Label  string  `yaml:"label"`
	Weight float64 `yaml:"weight"`
}

// Category is a product category with its price range.
type Category struct {
	Name     string  `yaml:"name"`
	Weight   float64 `yaml:"weight"`
	PriceMin float64 `yaml:"price_min"`
	PriceMax float64 `yaml:"price_max"`
}

// SalaryBand is an employee role with its annual gross salary range.
type SalaryBand struct {
	Role   string  `yaml:"role"`
	Weight float64 `yaml:"weight"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

// OrderSpec controls order composition: line count, shipping and
// discount behavior.
type OrderSpec struct {
	MaxLines         int     `yaml:"max_lines"`
	ShippingFlat     float64 `yaml:"shipping_flat"`
	FreeShippingOver float64 `yaml:"free_shipping_over"`
	DiscountRate     float64 `yaml:"discount_rate"`
	DiscountShare    float64 `yaml:"discount_share"`
}

// Accounts maps posting roles to GL account codes. The codes are part of
// the external schema contract consumed by the finance loader.
type Accounts struct {
	Cash            string `yaml:"cash"`
	Receivable      string `yaml:"receivable"`
	Revenue         string `yaml:"revenue"`
	ShippingRevenue string `yaml:"shipping_revenue"`
	VATPayable      string `yaml:"vat_payable"`
	PayrollTax      string `yaml:"payroll_tax"`
	PayrollExpense  string `yaml:"payroll_expense"`
}

// Reconciliation holds the validator's aggregate comparison tolerance.
// "0.00" demands exact equality; a non-zero value permits modeled drift.
type Reconciliation struct {
	Tolerance string `yaml:"tolerance"`
}

// Tolerance returns the parsed reconciliation tolerance.
func (c *Config) Tolerance() decimal.Decimal {
	d, err := decimal.NewFromString(c.Reconciliation.Tolerance)
	if err != nil {
		// Schema guarantees the format; unreachable after Load.
		return decimal.Zero
	}
	return d
}

// Scale returns the record-count multiplier for the configured mode.
func (c *Config) Scale() float64 {
	if s, ok := c.Modes[c.Mode]; ok {
		return s
	}
	return 1
}

// Scaled applies the mode multiplier to a base count, keeping at least 1.
func (c *Config) Scaled(n int) int {
	scaled := int(float64(n) * c.Scale())
	if scaled < 1 {
		return 1
	}
	return scaled
}

// CountryByCode returns the country config for a code.
func (c *Config) CountryByCode(code string) (Country, bool) {
	for _, ct := range c.Countries {
		if ct.Code == code {
			return ct, true
		}
	}
	return Country{}, false
}

// VATRate returns the VAT rate for a country code as a decimal.
func (c *Config) VATRate(code string) decimal.Decimal {
	ct, ok := c.CountryByCode(code)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(ct.VATRate)
}

// Load reads, schema-validates, and decodes a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: fmt.Sprintf("read config: %v", err)}
	}
	return Parse(data)
}

// Parse schema-validates and decodes a config document.
func Parse(data []byte) (*Config, error) {
	if errs := validateSchema(data); len(errs) > 0 {
		return nil, joinErrors(errs)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Code: ErrCodeDecode, Message: fmt.Sprintf("decode config: %v", err)}
	}

	if errs := checkWeights(&cfg); len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	return &cfg, nil
}

// Demo returns the embedded demo configuration, validated through the
// same path as user-supplied files.
func Demo() (*Config, error) {
	return Parse(demoYAML)
}

// checkWeights rejects distribution specs whose weights sum to zero.
// The schema guarantees non-negative weights; an all-zero spec would
// make the sampler undefined, so it is a configuration error.
func checkWeights(cfg *Config) []error {
	var errs []error

	check := func(field string, total float64) {
		if total <= 0 {
			errs = append(errs, &Error{
				Code:    ErrCodeZeroWeights,
				Field:   field,
				Message: "distribution weights sum to zero",
			})
		}
	}

	var t float64
	for _, c := range cfg.Countries {
		t += c.Weight
	}
	check("countries", t)

	sum := func(ws []Weight) float64 {
		var s float64
		for _, w := range ws {
			s += w.Weight
		}
		return s
	}
	check("payment_methods", sum(cfg.PaymentMethods))
	check("pos_payment_methods", sum(cfg.POSPaymentMethods))
	check("devices", sum(cfg.Devices))
	check("referrers", sum(cfg.Referrers))

	t = 0
	for _, c := range cfg.Categories {
		t += c.Weight
	}
	check("categories", t)

	t = 0
	for _, b := range cfg.SalaryBands {
		t += b.Weight
	}
	check("salary_bands", t)

	return errs
}

// Package forms validates admin form submissions before anything reaches the backend.
// A blocked form yields Errors keyed by field; callers must not call the backend then.
package forms

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"

	"chitti-admin/internal/config"
	"chitti-admin/internal/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var ErrMalformed = errors.New("malformed request body")

// Errors maps a field name to the message shown next to it.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type Validator struct {
	customer    *gojsonschema.Schema
	payment     *gojsonschema.Schema
	metalRate   *gojsonschema.Schema
	metalUpdate *gojsonschema.Schema

	maxAmount decimal.Decimal
	maxUpload int64
}

func New(cfg *config.Config) (*Validator, error) {
	v := &Validator{
		maxAmount: decimal.NewFromInt(cfg.MaxPaymentAmount),
		maxUpload: cfg.MaxUploadMB * 1024 * 1024,
	}
	var err error
	if v.customer, err = loadSchema("customer", nil); err != nil {
		return nil, err
	}
	if v.payment, err = loadSchema("payment", func(doc map[string]any) {
		props := doc["properties"].(map[string]any)
		props["paid_amount"].(map[string]any)["maximum"] = cfg.MaxPaymentAmount
	}); err != nil {
		return nil, err
	}
	if v.metalRate, err = loadSchema("metal_rate", nil); err != nil {
		return nil, err
	}
	if v.metalUpdate, err = loadSchema("metal_rate_update", nil); err != nil {
		return nil, err
	}
	return v, nil
}

func loadSchema(name string, patch func(map[string]any)) (*gojsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	if patch != nil {
		patch(doc)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return s, nil
}

// Customer validates the add-member form.
func (v *Validator) Customer(body []byte) (models.NewMember, error) {
	var out models.NewMember
	_, err := v.validate(v.customer, body, []string{"total_months"}, &out)
	return out, err
}

// Payment validates the public payment form.
func (v *Validator) Payment(body []byte) (models.NewPayment, error) {
	var out models.NewPayment
	_, err := v.validate(v.payment, body, []string{"paid_amount"}, &out)
	return out, err
}

func (v *Validator) MetalRate(body []byte) (models.NewMetalRate, error) {
	var out models.NewMetalRate
	if _, err := v.validate(v.metalRate, body, []string{"rate_per_gram", "rate_per_carat"}, &out); err != nil {
		return out, err
	}
	if !out.RatePerGram.Valid && !out.RatePerCarat.Valid {
		return out, Errors{"rate_per_gram": "Enter a rate per gram or per carat"}
	}
	if out.Currency == "" {
		out.Currency = "INR"
	}
	return out, nil
}

// MetalRatePatch is a validated edit of one metal rate. Only the fields present in the
// request are changed; nil means "keep the stored value". A rate sent as null clears it.
type MetalRatePatch struct {
	ID           models.ID
	Purity       *string
	RatePerGram  *decimal.NullDecimal
	RatePerCarat *decimal.NullDecimal
	Currency     *string
	UpdatedBy    string
}

// MetalRateUpdate validates an edit of rate id. metal_type and effective_date are
// fixed once a rate exists, so a body carrying them is refused.
func (v *Validator) MetalRateUpdate(id models.ID, body []byte) (MetalRatePatch, error) {
	var in models.MetalRateUpdate
	doc, err := v.validate(v.metalUpdate, body, []string{"rate_per_gram", "rate_per_carat"}, &in)
	if err != nil {
		return MetalRatePatch{}, err
	}
	if in.ID != "" && in.ID != id {
		return MetalRatePatch{}, Errors{"id": "Does not match the rate being edited"}
	}

	p := MetalRatePatch{ID: id, UpdatedBy: in.UpdatedBy}
	if _, ok := doc["purity"]; ok {
		p.Purity = &in.Purity
	}
	if _, ok := doc["rate_per_gram"]; ok {
		p.RatePerGram = &in.RatePerGram
	}
	if _, ok := doc["rate_per_carat"]; ok {
		p.RatePerCarat = &in.RatePerCarat
	}
	if _, ok := doc["currency"]; ok {
		p.Currency = &in.Currency
	}
	if p.Purity == nil && p.RatePerGram == nil && p.RatePerCarat == nil && p.Currency == nil {
		return MetalRatePatch{}, Errors{"purity": "Change the purity, a rate or the currency"}
	}
	return p, nil
}

// Fields names the columns the patch changes.
func (p MetalRatePatch) Fields() []string {
	var out []string
	if p.Purity != nil {
		out = append(out, "purity")
	}
	if p.RatePerGram != nil {
		out = append(out, "rate_per_gram")
	}
	if p.RatePerCarat != nil {
		out = append(out, "rate_per_carat")
	}
	if p.Currency != nil {
		out = append(out, "currency")
	}
	return out
}

// Merge lays the patch over the stored row and checks the result still carries a rate.
func (p MetalRatePatch) Merge(cur models.MetalRate) (models.MetalRateUpdate, error) {
	out := models.MetalRateUpdate{
		ID:           p.ID,
		Purity:       cur.Purity,
		RatePerGram:  cur.RatePerGram,
		RatePerCarat: cur.RatePerCarat,
		Currency:     cur.Currency,
		UpdatedBy:    p.UpdatedBy,
	}
	if p.Purity != nil {
		out.Purity = *p.Purity
	}
	if p.RatePerGram != nil {
		out.RatePerGram = *p.RatePerGram
	}
	if p.RatePerCarat != nil {
		out.RatePerCarat = *p.RatePerCarat
	}
	if p.Currency != nil {
		out.Currency = *p.Currency
	}
	if !out.RatePerGram.Valid && !out.RatePerCarat.Valid {
		return out, Errors{"rate_per_gram": "Enter a rate per gram or per carat"}
	}
	if out.Currency == "" {
		out.Currency = "INR"
	}
	return out, nil
}

// validate checks body against schema and decodes it into dst. The normalised document
// is returned so callers can tell which fields were sent.
func (v *Validator) validate(schema *gojsonschema.Schema, body []byte, numeric []string, dst any) (map[string]any, error) {
	doc, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	normalize(doc, numeric)

	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !res.Valid() {
		return nil, fieldErrors(res.Errors(), v.maxAmount)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	return doc, nil
}

// normalize trims every string, drops blank ones so "required" catches them, and turns
// numeric strings in the listed fields into numbers.
func normalize(doc map[string]any, numeric []string) {
	for k, val := range doc {
		s, ok := val.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			delete(doc, k)
			continue
		}
		doc[k] = s
	}
	for _, k := range numeric {
		s, ok := doc[k].(string)
		if !ok {
			continue
		}
		if d, err := decimal.NewFromString(s); err == nil {
			doc[k] = json.Number(d.String())
		}
	}
}

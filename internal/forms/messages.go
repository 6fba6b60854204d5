package forms

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"
)

var labels = map[string]string{
	"phone":          "Phone number",
	"full_name":      "Full name",
	"address":        "Address",
	"password":       "Password",
	"start_date":     "Start date",
	"total_months":   "Plan",
	"paid_amount":    "Amount",
	"utr_number":     "UTR number",
	"metal_type":     "Metal type",
	"purity":         "Purity",
	"rate_per_gram":  "Rate per gram",
	"rate_per_carat": "Rate per carat",
	"currency":       "Currency",
	"effective_date": "Effective date",
	"updated_by":     "Updated by",
	"name":           "Name",
	"type":           "Type",
	"weight_gm":      "Weight",
	"gender":         "Gender",
	"image":          "Image",
}

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

type messageKey struct{ field, kind string }

var messages = map[messageKey]string{
	{"phone", "pattern"}:          "Please enter a valid 10-digit phone number",
	{"utr_number", "pattern"}:     "Please enter a valid UTR number (8-20 characters)",
	{"paid_amount", "number_gt"}:  "Amount must be greater than 0",
	{"total_months", "enum"}:      "Plan must be 12 or 24 months",
	{"start_date", "pattern"}:     "Start date must be YYYY-MM-DD",
	{"effective_date", "pattern"}: "Effective date must be YYYY-MM-DD",
	{"currency", "pattern"}:       "Currency must be a 3-letter code",
}

// fieldErrors keeps the first message per field.
func fieldErrors(errs []gojsonschema.ResultError, maxAmount decimal.Decimal) Errors {
	out := Errors{}
	for _, e := range errs {
		field, msg := describe(e, maxAmount)
		if _, seen := out[field]; !seen {
			out[field] = msg
		}
	}
	return out
}

func describe(e gojsonschema.ResultError, maxAmount decimal.Decimal) (string, string) {
	field := e.Field()
	kind := e.Type()
	switch kind {
	case "required":
		field = fmt.Sprint(e.Details()["property"])
		return field, label(field) + " is required"
	case "additional_property_not_allowed":
		field = fmt.Sprint(e.Details()["property"])
		if field == "metal_type" || field == "effective_date" {
			return field, label(field) + " cannot be changed"
		}
		return field, "Unknown field"
	case "number_lte":
		if field == "paid_amount" {
			return field, "Amount exceeds maximum limit of " + maxAmount.String()
		}
	case "invalid_type":
		return field, label(field) + " must be a " + strings.ReplaceAll(strings.Trim(fmt.Sprint(e.Details()["expected"]), "[]"), ",", " or ")
	case "string_gte":
		return field, label(field) + " is required"
	case "string_lte":
		return field, label(field) + " is too long"
	case "number_gte":
		return field, label(field) + " cannot be negative"
	}
	if msg, ok := messages[messageKey{field, kind}]; ok {
		return field, msg
	}
	return field, e.Description()
}

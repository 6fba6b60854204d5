package views

import (
	"strings"

	"github.com/shopspring/decimal"

	"chitti-admin/internal/models"
	"chitti-admin/internal/table"
)

var Collection = table.Schema[models.CollectionItem]{
	Fields: []table.Field[models.CollectionItem]{
		table.TextField("id", "ID", func(c models.CollectionItem) string { return c.ID.String() }),
		table.TextField("name", "Name", func(c models.CollectionItem) string { return c.Name }),
		table.TextField("type", "Type", func(c models.CollectionItem) string { return string(c.Type) }),
		table.NumberField("weight_gm", "Weight (g)", func(c models.CollectionItem) decimal.Decimal { return c.WeightGm }),
		table.TextField("gender", "Gender", func(c models.CollectionItem) string { return string(c.Gender) }),
		table.TextField("created_at", "Created At", func(c models.CollectionItem) string { return c.CreatedAt }),
	},
	Search: []string{"name"},
}

func CollectionFilters(itemType, gender string) ([]table.Filter[models.CollectionItem], error) {
	var out []table.Filter[models.CollectionItem]
	if !isAll(itemType) {
		want := models.ItemType(strings.TrimSpace(itemType))
		if !want.Valid() {
			return nil, badFilter("type", itemType)
		}
		out = append(out, func(c models.CollectionItem) bool { return c.Type == want })
	}
	if !isAll(gender) {
		want := models.Gender(strings.TrimSpace(gender))
		if !want.Valid() {
			return nil, badFilter("gender", gender)
		}
		out = append(out, func(c models.CollectionItem) bool { return c.Gender == want })
	}
	return out, nil
}

func nullDecimal(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

var MetalRates = table.Schema[models.MetalRate]{
	Fields: []table.Field[models.MetalRate]{
		table.TextField("metal_type", "Metal", func(r models.MetalRate) string { return r.MetalType }),
		table.TextField("purity", "Purity", func(r models.MetalRate) string { return r.Purity }),
		table.NumberField("rate_per_gram", "Rate / g", func(r models.MetalRate) decimal.Decimal { return nullDecimal(r.RatePerGram) }),
		table.NumberField("rate_per_carat", "Rate / ct", func(r models.MetalRate) decimal.Decimal { return nullDecimal(r.RatePerCarat) }),
		table.TextField("currency", "Currency", func(r models.MetalRate) string { return r.Currency }),
		table.TextField("effective_date", "Effective Date", func(r models.MetalRate) string { return r.EffectiveDate }),
		table.TextField("updated_by", "Updated By", func(r models.MetalRate) string { return r.UpdatedBy }),
	},
	Search: []string{"metal_type", "purity"},
}

// MetalTypes lists the distinct metal types in first-seen order.
func MetalTypes(rows []models.MetalRate) []string {
	seen := make(map[string]bool, len(rows))
	out := make([]string, 0)
	for _, r := range rows {
		if seen[r.MetalType] {
			continue
		}
		seen[r.MetalType] = true
		out = append(out, r.MetalType)
	}
	return out
}

// FindMetalRate returns the rate with the given id.
func FindMetalRate(rows []models.MetalRate, id models.ID) (models.MetalRate, bool) {
	for _, r := range rows {
		if r.ID == id {
			return r, true
		}
	}
	return models.MetalRate{}, false
}

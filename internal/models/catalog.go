package models

import (
	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemGold     ItemType = "Gold"
	ItemSilver   ItemType = "Silver"
	ItemDiamond  ItemType = "Diamond"
	ItemPlatinum ItemType = "Platinum"
	ItemOther    ItemType = "Other"
)

var ItemTypes = []ItemType{ItemGold, ItemSilver, ItemDiamond, ItemPlatinum, ItemOther}

func (t ItemType) Valid() bool {
	for _, v := range ItemTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderUnisex Gender = "Unisex"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderUnisex}

func (g Gender) Valid() bool {
	for _, v := range Genders {
		if v == g {
			return true
		}
	}
	return false
}

type CollectionItem struct {
	ID        ID              `json:"id"`
	Name      string          `json:"name"`
	Type      ItemType        `json:"type"`
	WeightGm  decimal.Decimal `json:"weight_gm"`
	Gender    Gender          `json:"gender"`
	ImageURL  string          `json:"image_url"`
	CreatedAt string          `json:"created_at"`
}

// NewCollectionItem is sent to the backend as multipart/form-data.
type NewCollectionItem struct {
	Name      string
	Type      ItemType
	WeightGm  decimal.Decimal
	Gender    Gender
	ImageName string
	Image     []byte
}

type MetalRate struct {
	ID            ID                  `json:"id"`
	MetalType     string              `json:"metal_type"`
	Purity        string              `json:"purity"`
	RatePerGram   decimal.NullDecimal `json:"rate_per_gram"`
	RatePerCarat  decimal.NullDecimal `json:"rate_per_carat"`
	Currency      string              `json:"currency"`
	EffectiveDate string              `json:"effective_date"`
	UpdatedBy     string              `json:"updated_by"`
}

type NewMetalRate struct {
	MetalType     string              `json:"metal_type"`
	Purity        string              `json:"purity"`
	RatePerGram   decimal.NullDecimal `json:"rate_per_gram"`
	RatePerCarat  decimal.NullDecimal `json:"rate_per_carat"`
	Currency      string              `json:"currency"`
	EffectiveDate string              `json:"effective_date"`
	UpdatedBy     string              `json:"updated_by"`
}

// MetalRateUpdate has no metal_type or effective_date: both are fixed once a rate exists.
type MetalRateUpdate struct {
	ID           ID                  `json:"id"`
	Purity       string              `json:"purity"`
	RatePerGram  decimal.NullDecimal `json:"rate_per_gram"`
	RatePerCarat decimal.NullDecimal `json:"rate_per_carat"`
	Currency     string              `json:"currency"`
	UpdatedBy    string              `json:"updated_by"`
}

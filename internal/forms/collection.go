package forms

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"

	"chitti-admin/internal/models"
)

// CollectionForm is the raw multipart submission for a new catalog item.
type CollectionForm struct {
	Name      string
	Type      string
	WeightGm  string
	Gender    string
	ImageName string
	Image     []byte
}

func (v *Validator) CollectionItem(f CollectionForm) (models.NewCollectionItem, error) {
	errs := Errors{}
	out := models.NewCollectionItem{
		Name:      strings.TrimSpace(f.Name),
		Type:      models.ItemType(strings.TrimSpace(f.Type)),
		Gender:    models.Gender(strings.TrimSpace(f.Gender)),
		ImageName: f.ImageName,
		Image:     f.Image,
	}

	if out.Name == "" {
		errs["name"] = "Name is required"
	}
	if out.Type == "" {
		out.Type = models.ItemGold
	} else if !out.Type.Valid() {
		errs["type"] = "Type must be one of Gold, Silver, Diamond, Platinum, Other"
	}
	if out.Gender == "" {
		out.Gender = models.GenderMale
	} else if !out.Gender.Valid() {
		errs["gender"] = "Gender must be Male, Female or Unisex"
	}

	w := strings.TrimSpace(f.WeightGm)
	switch d, err := decimal.NewFromString(w); {
	case w == "":
		errs["weight_gm"] = "Weight is required"
	case err != nil:
		errs["weight_gm"] = "Weight must be a number"
	case !d.IsPositive():
		errs["weight_gm"] = "Weight must be greater than 0"
	default:
		out.WeightGm = d
	}

	switch {
	case len(f.Image) == 0:
		errs["image"] = "Image is required"
	case v.maxUpload > 0 && int64(len(f.Image)) > v.maxUpload:
		errs["image"] = fmt.Sprintf("Image must be %d MB or smaller", v.maxUpload/(1024*1024))
	default:
		if mt := mimetype.Detect(f.Image); !strings.HasPrefix(mt.String(), "image/") {
			errs["image"] = "File must be an image"
		}
	}
	if out.ImageName == "" {
		out.ImageName = "image"
	}

	if len(errs) > 0 {
		return models.NewCollectionItem{}, errs
	}
	return out, nil
}

package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/events"
	"chitti-admin/internal/forms"
	"chitti-admin/internal/models"
	"chitti-admin/internal/views"
)

// GET /v1/collections
func (s *Server) listCollection(c *gin.Context) {
	q, page := listQuery(c)
	filters, err := views.CollectionFilters(c.Query("type"), c.Query("gender"))
	if err != nil {
		writeQueryError(c, err)
		return
	}
	items, err := s.api.ListCollection(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return
	}
	rows, err := views.Collection.Apply(items, q, filters...)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	p := pageOf(s, rows, page)
	c.JSON(200, gin.H{
		"rows":        p.Rows,
		"page":        p.Page,
		"page_size":   p.PageSize,
		"total_pages": p.TotalPages,
		"total":       p.Total,
		"types":       models.ItemTypes,
		"genders":     models.Genders,
	})
}

// multipartSlack covers the text fields and part headers around the image.
const multipartSlack = 64 << 10

// POST /v1/collections (multipart/form-data: name, type, weight_gm, gender, image)
func (s *Server) createCollectionItem(c *gin.Context) {
	limit := s.cfg.MaxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)

	var tooLarge *http.MaxBytesError
	if err := c.Request.ParseMultipartForm(limit); errors.As(err, &tooLarge) {
		writeError(c, 413, "payload_too_large", "Image is too large")
		return
	}
	form := forms.CollectionForm{
		Name:     c.PostForm("name"),
		Type:     c.PostForm("type"),
		WeightGm: c.PostForm("weight_gm"),
		Gender:   c.PostForm("gender"),
	}
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			writeError(c, 400, "invalid_request", "could not read image")
			return
		}
		form.Image, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(c, 400, "invalid_request", "could not read image")
			return
		}
		form.ImageName = fh.Filename
	}

	in, err := s.forms.CollectionItem(form)
	if err != nil {
		writeFormError(c, err)
		return
	}

	item, err := s.api.CreateCollectionItem(c.Request.Context(), in)
	var key string
	if item != nil {
		key = item.ID.String()
	}
	s.finish(c, change{
		action:  "create",
		entity:  "collection",
		key:     key,
		fields:  []string{"name", "type", "weight_gm", "gender", "image"},
		event:   events.CollectionCreated,
		payload: item,
	}, err)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(201, gin.H{"message": "New item added successfully!", "item": item})
}

// DELETE /v1/collections/:id
func (s *Server) deleteCollectionItem(c *gin.Context) {
	id := models.ID(strings.TrimSpace(c.Param("id")))
	if id == "" {
		writeError(c, 400, "invalid_request", "id is required")
		return
	}

	unlock := s.locks.Lock("collection:" + id.String())
	err := s.api.DeleteCollectionItem(c.Request.Context(), id)
	unlock()

	s.finish(c, change{
		action:  "delete",
		entity:  "collection",
		key:     id.String(),
		event:   events.CollectionDeleted,
		payload: gin.H{"id": id},
	}, err)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Item deleted successfully"})
}

// GET /v1/metal-rates
func (s *Server) listMetalRates(c *gin.Context) {
	q, page := listQuery(c)
	rates, err := s.api.ListMetalRates(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return
	}
	rows, err := views.MetalRates.Apply(rates, q)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	p := pageOf(s, rows, page)
	c.JSON(200, gin.H{
		"rows":        p.Rows,
		"page":        p.Page,
		"page_size":   p.PageSize,
		"total_pages": p.TotalPages,
		"total":       p.Total,
		"metal_types": views.MetalTypes(rates),
	})
}

// POST /v1/metal-rates
func (s *Server) createMetalRate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, 400, "invalid_request", "could not read body")
		return
	}
	in, err := s.forms.MetalRate(body)
	if err != nil {
		writeFormError(c, err)
		return
	}
	if in.UpdatedBy == "" {
		_, in.UpdatedBy = actor(c)
	}

	msg, err := s.api.CreateMetalRate(c.Request.Context(), in)
	s.finish(c, change{
		action:  "create",
		entity:  "metal_rate",
		key:     in.MetalType + "/" + in.Purity,
		fields:  []string{"metal_type", "purity", "rate_per_gram", "rate_per_carat", "currency", "effective_date"},
		event:   events.MetalRateCreated,
		payload: in,
	}, err)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(201, gin.H{"message": successMessage(msg, "Metal rate added successfully!")})
}

// PUT /v1/metal-rates/:id
//
// The body may carry only the fields being changed; the rest are taken from the stored
// row, since the backend replaces the whole rate.
func (s *Server) updateMetalRate(c *gin.Context) {
	id := models.ID(strings.TrimSpace(c.Param("id")))
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, 400, "invalid_request", "could not read body")
		return
	}
	patch, err := s.forms.MetalRateUpdate(id, body)
	if err != nil {
		writeFormError(c, err)
		return
	}
	if patch.UpdatedBy == "" {
		_, patch.UpdatedBy = actor(c)
	}

	unlock := s.locks.Lock("metal_rate:" + id.String())
	defer unlock()

	rates, err := s.api.ListMetalRates(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return
	}
	cur, ok := views.FindMetalRate(rates, id)
	if !ok {
		writeError(c, 404, "not_found", "Metal rate not found")
		return
	}
	in, err := patch.Merge(cur)
	if err != nil {
		writeFormError(c, err)
		return
	}

	msg, err := s.api.UpdateMetalRate(c.Request.Context(), in)
	s.finish(c, change{
		action:  "update",
		entity:  "metal_rate",
		key:     id.String(),
		fields:  patch.Fields(),
		event:   events.MetalRateUpdated,
		payload: in,
	}, err)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": successMessage(msg, "Updated successfully!")})
}

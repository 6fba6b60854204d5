package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chitti-admin/internal/config"
	"chitti-admin/internal/models"
)

// API is everything the admin service asks of the chitti backend.
type API interface {
	CreateCustomer(ctx context.Context, in models.NewMember) (string, error)
	ListCustomers(ctx context.Context) ([]models.Member, error)
	ListAllCustomers(ctx context.Context) ([]models.MemberRecord, error)
	UpdateCustomer(ctx context.Context, in models.MemberStatusUpdate) (string, error)

	CreatePayment(ctx context.Context, in models.NewPayment) (string, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, in models.PaymentStatusUpdate) (string, error)
	GoldUsersSummary(ctx context.Context) ([]models.MemberSummary, error)

	ListCollection(ctx context.Context) ([]models.CollectionItem, error)
	CreateCollectionItem(ctx context.Context, in models.NewCollectionItem) (*models.CollectionItem, error)
	DeleteCollectionItem(ctx context.Context, id models.ID) error

	ListMetalRates(ctx context.Context) ([]models.MetalRate, error)
	CreateMetalRate(ctx context.Context, in models.NewMetalRate) (string, error)
	UpdateMetalRate(ctx context.Context, in models.MetalRateUpdate) (string, error)
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BackendBaseURL, "/"),
		timeout: cfg.BackendTimeout(),
		http:    &http.Client{},
	}
}

type messageBody struct {
	Message string `json:"message"`
}

func (c *Client) CreateCustomer(ctx context.Context, in models.NewMember) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPost, "/create-customer", in, &out)
	return out.Message, err
}

func (c *Client) ListCustomers(ctx context.Context) ([]models.Member, error) {
	var out []models.Member
	if err := c.getList(ctx, "/customers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAllCustomers(ctx context.Context) ([]models.MemberRecord, error) {
	var out []models.MemberRecord
	if err := c.getList(ctx, "/customers/all", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, in models.MemberStatusUpdate) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPut, "/update-customer", in, &out)
	return out.Message, err
}

func (c *Client) CreatePayment(ctx context.Context, in models.NewPayment) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPost, "/create-payment", in, &out)
	return out.Message, err
}

func (c *Client) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	if err := c.getList(ctx, "/payments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdatePayment(ctx context.Context, in models.PaymentStatusUpdate) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPut, "/update-payment", in, &out)
	return out.Message, err
}

func (c *Client) GoldUsersSummary(ctx context.Context) ([]models.MemberSummary, error) {
	var out []models.MemberSummary
	if err := c.getList(ctx, "/gold_users_summary", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCollection(ctx context.Context) ([]models.CollectionItem, error) {
	var out []models.CollectionItem
	if err := c.getList(ctx, "/gold", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCollectionItem(ctx context.Context, in models.NewCollectionItem) (*models.CollectionItem, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", in.Name)
	_ = mw.WriteField("type", string(in.Type))
	_ = mw.WriteField("weight_gm", in.WeightGm.String())
	_ = mw.WriteField("gender", string(in.Gender))
	fw, err := mw.CreateFormFile("image", in.ImageName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, bytes.NewReader(in.Image)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Status string                  `json:"status"`
		Data   []models.CollectionItem `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/gold", mw.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%w: create returned no item", ErrDecode)
	}
	return &out.Data[0], nil
}

func (c *Client) DeleteCollectionItem(ctx context.Context, id models.ID) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodDelete, "/gold/"+url.PathEscape(id.String()), "", nil, &out); err != nil {
		return err
	}
	if out.Status != "deleted" {
		return fmt.Errorf("%w: delete status %q", ErrDecode, out.Status)
	}
	return nil
}

func (c *Client) ListMetalRates(ctx context.Context) ([]models.MetalRate, error) {
	var out []models.MetalRate
	if err := c.getList(ctx, "/get-metal-rates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMetalRate(ctx context.Context, in models.NewMetalRate) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPost, "/create-metal-rate", in, &out)
	return out.Message, err
}

func (c *Client) UpdateMetalRate(ctx context.Context, in models.MetalRateUpdate) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPut, "/update-metal-rate", in, &out)
	return out.Message, err
}

// getList decodes either a bare JSON array or an envelope with the rows under "data".
func (c *Client) getList(ctx context.Context, path string, dst any) error {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, "", nil, &raw); err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		raw = bytes.TrimSpace(env.Data)
		if len(raw) == 0 || string(raw) == "null" {
			return nil
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(b), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, bs)
	}
	if out == nil || len(bytes.TrimSpace(bs)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bs, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}
	return nil
}

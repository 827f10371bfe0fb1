// Package coupang implements the product source and deeplink ports on the
// Coupang Partners Open API.
package coupang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ReviewPipeline/internal/config"
	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

const apiPrefix = "/v2/providers/affiliate_open_api/apis/openapi"

// Client calls the affiliate gateway with HMAC-signed requests.
type Client struct {
	baseURL    string
	accessKey  string
	secretKey  string
	subID      string
	httpClient *http.Client
	now        func() time.Time
}

var _ ports.SourceClient = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.CoupangConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-gateway.coupang.com"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		subID:     cfg.SubID,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		now: time.Now,
	}
}

type envelope struct {
	RCode    int             `json:"rCode"`
	RMessage string          `json:"rMessage"`
	Data     json.RawMessage `json:"data"`
}

type product struct {
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	ProductPrice int64  `json:"productPrice"`
	ProductImage string `json:"productImage"`
	ProductURL   string `json:"productUrl"`
	CategoryName string `json:"categoryName"`
}

// FetchBySource pulls up to limit candidate products from one source.
func (c *Client) FetchBySource(ctx context.Context, src domain.SourceRef, limit int) ([]domain.Item, error) {
	if c.accessKey == "" || c.secretKey == "" {
		return nil, fmt.Errorf("coupang client misconfigured")
	}

	var (
		path    string
		wrapped bool
	)
	params := url.Values{}
	if c.subID != "" {
		params.Set("subId", c.subID)
	}

	switch src.Kind {
	case domain.SourceDeal:
		// The goldbox endpoint has no limit parameter; the caller's limit
		// is applied to the response.
		path = apiPrefix + "/products/goldbox"
	case domain.SourceKeyword:
		params.Set("keyword", src.Sub)
		params.Set("limit", strconv.Itoa(limit))
		path = apiPrefix + "/products/search"
		wrapped = true
	case domain.SourceCategory:
		params.Set("limit", strconv.Itoa(limit))
		path = apiPrefix + "/products/bestcategories/" + url.PathEscape(src.Sub)
	case domain.SourcePrivateLabel:
		params.Set("limit", strconv.Itoa(limit))
		path = apiPrefix + "/products/coupangPL"
		if src.Sub != "" {
			path += "/" + url.PathEscape(src.Sub)
		}
	default:
		return nil, fmt.Errorf("unsupported source kind %q", src.Kind)
	}

	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var products []product
	if wrapped {
		var data struct {
			ProductData []product `json:"productData"`
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("decode %s products: %w", src.Kind, err)
		}
		products = data.ProductData
	} else {
		if err := json.Unmarshal(body, &products); err != nil {
			return nil, fmt.Errorf("decode %s products: %w", src.Kind, err)
		}
	}

	if len(products) > limit {
		products = products[:limit]
	}

	items := make([]domain.Item, 0, len(products))
	for _, p := range products {
		items = append(items, domain.Item{
			ID:         strconv.FormatInt(p.ProductID, 10),
			Name:       p.ProductName,
			Price:      p.ProductPrice,
			ImageURL:   p.ProductImage,
			Category:   p.CategoryName,
			ProductURL: p.ProductURL,
		})
	}
	return items, nil
}

// ShortenURL converts a product URL into a tracked affiliate deeplink.
func (c *Client) ShortenURL(ctx context.Context, rawURL string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"coupangUrls": []string{rawURL},
		"subId":       c.subID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal deeplink payload: %w", err)
	}

	body, err := c.request(ctx, http.MethodPost, apiPrefix+"/v1/deeplink", payload)
	if err != nil {
		return "", err
	}

	var links []struct {
		OriginalURL string `json:"originalUrl"`
		ShortenURL  string `json:"shortenUrl"`
	}
	if err := json.Unmarshal(body, &links); err != nil {
		return "", fmt.Errorf("decode deeplinks: %w", err)
	}
	if len(links) == 0 || links[0].ShortenURL == "" {
		return "", fmt.Errorf("no deeplink returned for %s", rawURL)
	}
	return links[0].ShortenURL, nil
}

func (c *Client) request(ctx context.Context, method, path string, payload []byte) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", authorization(method, path, c.accessKey, c.secretKey, c.now()))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call coupang api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("coupang api error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode coupang response: %w", err)
	}
	if env.RCode != 0 {
		return nil, fmt.Errorf("coupang api rCode %d: %s", env.RCode, env.RMessage)
	}
	return env.Data, nil
}

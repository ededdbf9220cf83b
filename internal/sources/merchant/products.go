package merchant

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/price-visibility-booster/internal/transport"
	"github.com/google/price-visibility-booster/pkg/errors"
	"github.com/google/price-visibility-booster/pkg/feeds"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// DefaultListingPageSize is the maxResults requested from the listing endpoint.
const DefaultListingPageSize = 250

// DefaultBatchSize is the number of product lookups sent per batch request.
const DefaultBatchSize = 100

// productResource is one product in a listing or lookup response.
type productResource struct {
	ID               string `json:"id"`
	OfferID          string `json:"offerId"`
	Availability     string `json:"availability"`
	CustomAttributes []any  `json:"customAttributes,omitempty"`
}

// listResponse is the product listing response body.
type listResponse struct {
	Resources     []productResource `json:"resources"`
	NextPageToken string            `json:"nextPageToken"`
	Error         *apiErrorBody     `json:"error,omitempty"`
}

// batchEntry is one lookup in a batch request.
type batchEntry struct {
	BatchID    int    `json:"batchId"`
	MerchantID string `json:"merchantId"`
	Method     string `json:"method"`
	ProductID  string `json:"productId"`
}

// batchRequest is the batch lookup request body.
type batchRequest struct {
	Entries []batchEntry `json:"entries"`
}

// batchResponseEntry is one lookup result in a batch response.
type batchResponseEntry struct {
	BatchID int              `json:"batchId"`
	Product *productResource `json:"product,omitempty"`
}

// batchResponse is the batch lookup response body.
type batchResponse struct {
	Entries []batchResponseEntry `json:"entries"`
	Error   *apiErrorBody        `json:"error,omitempty"`
}

// ProductsClient fetches product listings and batch stock lookups.
type ProductsClient struct {
	transport  *transport.Client
	baseURL    string
	merchantID string
	pageSize   int
	batchSize  int
	policy     RetryPolicy
}

// NewProductsClient creates a products client for one merchant account.
func NewProductsClient(t *transport.Client, baseURL, merchantID string) *ProductsClient {
	return &ProductsClient{
		transport:  t,
		baseURL:    baseURL,
		merchantID: merchantID,
		pageSize:   DefaultListingPageSize,
		batchSize:  DefaultBatchSize,
		policy:     ListingRetryPolicy,
	}
}

// ListProductIDs pages through the product listing and returns all product
// ids in arrival order. The listing path runs a zero-retry policy: any
// endpoint-reported error stops the loop and the ids accumulated so far are
// returned.
func (c *ProductsClient) ListProductIDs(ctx context.Context) ([]string, error) {
	ctx = logging.WithEndpoint(ctx, "products.list")

	result, err := paginate(ctx, "products.list", c.policy, false, func(ctx context.Context, cursor string) (page[string], error) {
		query := url.Values{"maxResults": {fmt.Sprint(c.pageSize)}}
		if cursor != "" {
			query.Set("pageToken", cursor)
		}
		listURL := fmt.Sprintf("%s/%s/products?%s", c.baseURL, c.merchantID, query.Encode())

		resp, err := c.transport.Get(ctx, listURL)
		if err != nil {
			return page[string]{}, err
		}

		var body listResponse
		if err := transport.DecodeResponse(ctx, resp, &body); err != nil {
			return page[string]{}, err
		}

		ids := make([]string, 0, len(body.Resources))
		for _, resource := range body.Resources {
			ids = append(ids, resource.ID)
		}
		return page[string]{items: ids, nextCursor: body.NextPageToken, apiErr: body.Error}, nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Int("products", len(result.Records)).Msg("Product listing downloaded")
	return result.Records, nil
}

// BatchGetProducts looks up availability and stock for the given product ids
// and returns product records keyed by product id. Lookups are chunked into
// batch requests and driven through the same pagination loop, with the chunk
// offset acting as the cursor.
//
// Invoking the batch lookup with zero candidates is a fatal condition.
func (c *ProductsClient) BatchGetProducts(ctx context.Context, productIDs []string, stockAttribute string) (map[string]feeds.ProductRecord, error) {
	ctx = logging.WithEndpoint(ctx, "products.batch")

	if len(productIDs) == 0 {
		return nil, &errors.EmptyInputError{Stage: "batch lookup", Message: "no candidate products"}
	}

	batchURL := fmt.Sprintf("%s/products/batch", c.baseURL)

	result, err := paginate(ctx, "products.batch", c.policy, false, func(ctx context.Context, cursor string) (page[batchResponseEntry], error) {
		offset := parseOffset(cursor)
		end := offset + c.batchSize
		if end > len(productIDs) {
			end = len(productIDs)
		}

		req := batchRequest{Entries: make([]batchEntry, 0, end-offset)}
		for i, productID := range productIDs[offset:end] {
			req.Entries = append(req.Entries, batchEntry{
				BatchID:    offset + i,
				MerchantID: c.merchantID,
				Method:     "get",
				ProductID:  productID,
			})
		}

		resp, err := c.transport.PostJSON(ctx, batchURL, req)
		if err != nil {
			return page[batchResponseEntry]{}, err
		}

		var body batchResponse
		if err := transport.DecodeResponse(ctx, resp, &body); err != nil {
			return page[batchResponseEntry]{}, err
		}

		next := ""
		if end < len(productIDs) {
			next = fmt.Sprint(end)
		}
		return page[batchResponseEntry]{items: body.Entries, nextCursor: next, apiErr: body.Error}, nil
	})
	if err != nil {
		return nil, err
	}

	products := make(map[string]feeds.ProductRecord, len(result.Records))
	for _, entry := range result.Records {
		if entry.Product == nil {
			continue
		}
		products[entry.Product.ID] = feeds.ProductRecord{
			Availability:  entry.Product.Availability,
			StockQuantity: stockFromAttributes(ctx, entry.Product.CustomAttributes, stockAttribute),
		}
	}

	logging.Ctx(ctx).Info().Int("products", len(products)).Msg("Batch lookup complete")
	return products, nil
}

// parseOffset decodes the chunk-offset cursor used by the batch loop.
func parseOffset(cursor string) int {
	if cursor == "" {
		return 0
	}
	var offset int
	_, _ = fmt.Sscanf(cursor, "%d", &offset)
	return offset
}

// stockFromAttributes scans a product's custom attributes for the configured
// stock attribute. A malformed attribute entry is logged and yields an empty
// placeholder value; the scan keeps going rather than failing the product.
func stockFromAttributes(ctx context.Context, attributes []any, name string) string {
	if name == "" {
		return ""
	}
	for _, raw := range attributes {
		attr, ok := raw.(map[string]any)
		if !ok {
			logging.Ctx(ctx).Warn().Interface("attribute", raw).
				Msg("Malformed custom attribute, using empty stock value")
			continue
		}
		if attrName, _ := attr["name"].(string); attrName == name {
			value, ok := attr["value"].(string)
			if !ok {
				logging.Ctx(ctx).Warn().Str("attribute", name).
					Msg("Non-string custom attribute value, using empty stock value")
				return ""
			}
			return value
		}
	}
	return ""
}

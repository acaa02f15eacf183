// Package fakestore retrieves the product catalog from the remote store API
// and keeps a local gzipped snapshot for offline startup.
package fakestore

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/olshop/online-store/internal/domain/catalog"
)

// ErrFetchFailed is returned for transport failures and non-2xx responses.
// A failed fetch is terminal for that attempt; there is no automatic retry.
var ErrFetchFailed = errors.New("catalog fetch failed")

var _ catalog.Source = (*Client)(nil)

// Client fetches the catalog from a single remote endpoint.
type Client struct {
	http *http.Client
	url  string
}

// NewClient returns a Client for the given catalog URL. Requests are
// instrumented with otelhttp.
func NewClient(url string) *Client {
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		url: url,
	}
}

// Fetch performs a one-shot request for the full product list.
func (c *Client) Fetch(ctx context.Context) ([]catalog.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(ErrFetchFailed, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "read body: %v", err)
	}

	products, err := decodeProducts(body)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "decode: %v", err)
	}
	return products, nil
}

// decodeProducts parses the store API product list. Fields beyond the ones
// the cart needs (description, category, rating) are skipped.
func decodeProducts(data []byte) ([]catalog.Product, error) {
	d := jx.DecodeBytes(data)

	var products []catalog.Product
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.ID = v
		case "title":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Title = v
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(strings.Trim(n.String(), `"`))
			if err != nil {
				return err
			}
			p.Price = price
		case "image":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Image = v
		default:
			return d.Skip()
		}
		return nil
	})
	return p, err
}

func encodeProducts(products []catalog.Product) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, p := range products {
		e.ObjStart()
		e.FieldStart("id")
		e.Int(p.ID)
		e.FieldStart("title")
		e.Str(p.Title)
		e.FieldStart("price")
		e.Num(jx.Num(p.Price.String()))
		e.FieldStart("image")
		e.Str(p.Image)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// Package ratesvc fetches exchange rates from an open.er-api.com compatible endpoint.
package ratesvc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/bolsa/core/finance"
)

// maxBodySize bounds the provider response; the full rate table is a few KB.
const maxBodySize = 1 << 20

// HTTPSource reads `rates.<CODE>` from a JSON document of USD based rates.
type HTTPSource struct {
	url    string
	client *http.Client
}

var _ finance.RateSource = (*HTTPSource)(nil)

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchRate returns 0 and no error when the document has no usable rate for code.
func (s *HTTPSource) FetchRate(ctx context.Context, code string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "building rate request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "requesting exchange rates")
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("exchange rate provider responded with status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return 0, errors.Wrap(err, "reading exchange rates")
	}
	if !gjson.ValidBytes(body) {
		return 0, errors.New("exchange rate provider returned invalid JSON")
	}

	rate := gjson.GetBytes(body, "rates."+strings.ToUpper(code))
	if rate.Type != gjson.Number {
		return 0, nil
	}
	return rate.Float(), nil
}

package placeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"
	photoMaxWidth  = 800

	detailsFieldMask = "id,displayName,formattedAddress,location,rating," +
		"userRatingCount,nationalPhoneNumber,websiteUri,priceLevel,types," +
		"photos,currentOpeningHours,regularOpeningHours"
)

// GoogleClient implements Client against the Google Places API (v1).
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// NewGoogleClient builds a client. An empty API key yields a disabled client
// rather than an error so the surrounding service can start without
// enrichment.
func NewGoogleClient(cfg Config) *GoogleClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	return &GoogleClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: retries,
	}
}

// Enabled reports whether an API key was supplied.
func (c *GoogleClient) Enabled() bool { return c.apiKey != "" }

type searchTextRequest struct {
	TextQuery string `json:"textQuery"`
	PageSize  int    `json:"pageSize"`
}

type searchTextResponse struct {
	Places []placePayload `json:"places"`
}

type placePayload struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Rating          *float64 `json:"rating"`
	UserRatingCount *int     `json:"userRatingCount"`
	NationalPhone   string   `json:"nationalPhoneNumber"`
	WebsiteURI      string   `json:"websiteUri"`
	PriceLevel      string   `json:"priceLevel"`
	Types           []string `json:"types"`
	Photos          []struct {
		Name string `json:"name"`
	} `json:"photos"`
	CurrentOpeningHours *openingHoursPayload `json:"currentOpeningHours"`
	RegularOpeningHours *openingHoursPayload `json:"regularOpeningHours"`
}

type openingHoursPayload struct {
	OpenNow *bool `json:"openNow"`
	Periods []struct {
		Open  *periodPointPayload `json:"open"`
		Close *periodPointPayload `json:"close"`
	} `json:"periods"`
}

type periodPointPayload struct {
	Day    int  `json:"day"`
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
}

var errDisabled = errors.New("place lookup disabled: no API key configured")

// FindPlace runs a text search for "name, address" and returns the top hit.
func (c *GoogleClient) FindPlace(ctx context.Context, name, address string) (*Details, error) {
	if !c.Enabled() {
		return nil, errDisabled
	}

	query := strings.TrimSpace(name)
	if address = strings.TrimSpace(address); address != "" {
		query += ", " + address
	}

	body, err := json.Marshal(searchTextRequest{TextQuery: query, PageSize: 1})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/places:searchText", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, "places."+strings.ReplaceAll(detailsFieldMask, ",", ",places."))
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("search place: %w", err)
	}
	defer resp.Body.Close()

	var decoded searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(decoded.Places) == 0 {
		return nil, nil
	}

	return c.toDetails(decoded.Places[0]), nil
}

// Details fetches the full record for a known place ID.
func (c *GoogleClient) Details(ctx context.Context, placeID string) (*Details, error) {
	if !c.Enabled() {
		return nil, errDisabled
	}
	if placeID == "" {
		return nil, errors.New("place id is required")
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/places/"+placeID, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, detailsFieldMask)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	defer resp.Body.Close()

	var decoded placePayload
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode details response: %w", err)
	}

	return c.toDetails(decoded), nil
}

func (c *GoogleClient) setHeaders(req *http.Request, fieldMask string) {
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
}

func (c *GoogleClient) toDetails(p placePayload) *Details {
	d := &Details{
		PlaceID:     p.ID,
		Name:        p.DisplayName.Text,
		Address:     p.FormattedAddress,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingCount,
		Phone:       p.NationalPhone,
		Website:     p.WebsiteURI,
		PriceLevel:  p.PriceLevel,
		Types:       p.Types,
	}
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		d.Lat, d.Lng = &lat, &lng
	}
	for _, photo := range p.Photos {
		if photo.Name == "" {
			continue
		}
		d.PhotoURLs = append(d.PhotoURLs, c.photoURL(photo.Name))
	}

	hours := p.CurrentOpeningHours
	if hours == nil {
		hours = p.RegularOpeningHours
	}
	if hours != nil {
		d.OpenNow = hours.OpenNow
		for _, period := range hours.Periods {
			if period.Open == nil {
				continue
			}
			op := OpeningPeriod{
				OpenDay:    period.Open.Day,
				OpenHour:   period.Open.Hour,
				OpenMinute: period.Open.Minute,
			}
			if period.Close != nil {
				op.CloseDay = period.Close.Day
				op.CloseHour = period.Close.Hour
				op.CloseMinute = period.Close.Minute
			}
			d.Periods = append(d.Periods, op)
		}
	}

	return d
}

// photoURL builds a servable media URL from a photo resource name.
func (c *GoogleClient) photoURL(photoName string) string {
	return fmt.Sprintf("%s/%s/media?maxWidthPx=%d&key=%s",
		c.baseURL, photoName, photoMaxWidth, c.apiKey)
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (c *GoogleClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429, 5xx) with
// exponential backoff while respecting context cancellation.
func (c *GoogleClient) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == c.maxRetries {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}

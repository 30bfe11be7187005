package httpapi

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"

	"platemap/internal/store"
)

// submissionRequest is the intake payload. Validation happens here, at the
// boundary, before the pipeline ever sees the record.
type submissionRequest struct {
	Location partialLocation `json:"location" validate:"required"`
}

type partialLocation struct {
	Name        string       `json:"name" validate:"required"`
	Address     string       `json:"address" validate:"required"`
	Description string       `json:"description"`
	Coordinates *coordinates `json:"coordinates" validate:"required"`
	Cuisines    []string     `json:"cuisine"`
	ServiceType string       `json:"serviceType" validate:"omitempty,oneof=dine-in takeaway both"`
	PriceRange  string       `json:"priceRange" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	Phone       string       `json:"phone"`
	Website     string       `json:"website" validate:"omitempty,url"`
	Images      []string     `json:"images" validate:"omitempty,dive,url"`
	IsOpenNow   bool         `json:"isOpenNow"`
}

type coordinates struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

func (r submissionRequest) toLocation() store.Location {
	p := r.Location
	loc := store.Location{
		Name:        p.Name,
		Address:     p.Address,
		Description: p.Description,
		Cuisines:    p.Cuisines,
		ServiceType: p.ServiceType,
		PriceRange:  p.PriceRange,
		Images:      p.Images,
		IsOpenNow:   p.IsOpenNow,
	}
	if p.Coordinates != nil {
		loc.Lat = p.Coordinates.Lat
		loc.Lng = p.Coordinates.Lng
	}
	if p.Phone != "" {
		phone := p.Phone
		loc.Phone = &phone
	}
	if p.Website != "" {
		website := p.Website
		loc.Website = &website
	}
	return loc
}

// fieldErrors flattens validator output into field -> message for 400 bodies.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return fields
}

// allowedListParams is the closed set of query parameters on the listing
// endpoint. Unknown parameters are rejected rather than passed through.
var allowedListParams = map[string]struct{}{
	"status":      {},
	"includeAll":  {},
	"search":      {},
	"cuisine":     {},
	"serviceType": {},
}

func parseListFilter(query url.Values) (store.LocationFilter, error) {
	for param := range query {
		if _, ok := allowedListParams[param]; !ok {
			return store.LocationFilter{}, fmt.Errorf("unknown query parameter %q", param)
		}
	}

	filter := store.LocationFilter{
		Status:      query.Get("status"),
		IncludeAll:  query.Get("includeAll") == "true",
		Search:      query.Get("search"),
		Cuisine:     query.Get("cuisine"),
		ServiceType: query.Get("serviceType"),
	}

	switch filter.Status {
	case "", store.StatusPending, store.StatusApproved, store.StatusRejected:
	default:
		return store.LocationFilter{}, fmt.Errorf("unknown status %q", filter.Status)
	}

	return filter, nil
}

package lostark

import (
	"errors"
	"fmt"
)

// DefaultBaseURL is the public developer API.
const DefaultBaseURL = "https://developer-lostark.game.onstove.com"

var (
	// ErrNoToken is returned before any request is made when no API token is set.
	ErrNoToken = errors.New("lost ark api token is not set")
	// ErrInvalidToken is returned by ValidateToken when the API rejects a token.
	ErrInvalidToken = errors.New("lost ark api token was rejected")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lost ark api %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

type marketItemsRequest struct {
	CategoryCode int `json:"CategoryCode"`
}

// MarketPage is one page of /markets/items results.
type MarketPage struct {
	PageNo     int          `json:"PageNo"`
	PageSize   int          `json:"PageSize"`
	TotalCount int          `json:"TotalCount"`
	Items      []MarketItem `json:"Items"`
}

type MarketItem struct {
	ID               int64   `json:"Id"`
	Name             string  `json:"Name"`
	Grade            string  `json:"Grade"`
	Icon             string  `json:"Icon"`
	BundleCount      int     `json:"BundleCount"`
	TradeRemainCount *int    `json:"TradeRemainCount"`
	YDayAvgPrice     float64 `json:"YDayAvgPrice"`
	RecentPrice      float64 `json:"RecentPrice"`
	CurrentMinPrice  float64 `json:"CurrentMinPrice"`
}

// internal/providers/hotels/booking.go
package hotels

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"travel-planner/internal/common/cache"
	"travel-planner/internal/common/metrics"
)

const (
	BookingSourceProvider = "provider"
	BookingSourceFallback = "fallback"
)

type BookingLink struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

func (c *Client) bookingEndpoint() string {
	if c.cfg.BookingEndpoint != "" {
		return c.cfg.BookingEndpoint
	}
	return c.cfg.Endpoint
}

// BookingIntent returns a link the traveller can open to book a hotel. A
// provider deeplink is preferred; otherwise a Maps hotel search is returned.
// It never fails; provider errors are logged.
func (c *Client) BookingIntent(ctx context.Context, city, checkin string, nights int) BookingLink {
	key := cache.Key("booking", city, checkin, strconv.Itoa(nights))
	var link BookingLink
	if found, _ := c.cache.Get(ctx, key, &link); found {
		c.ledger.Inc(metrics.CountCacheHits)
		return link
	}
	c.ledger.Inc(metrics.CountCacheMisses)

	link = BookingLink{URL: FallbackHotelLink(city, checkin, nights), Source: BookingSourceFallback}

	if endpoint := c.bookingEndpoint(); c.cfg.APIKey != "" && endpoint != "" {
		var resp struct {
			Deeplink string `json:"deeplink"`
			URL      string `json:"url"`
		}
		params := url.Values{"city": {city}, "checkin": {checkin}, "nights": {strconv.Itoa(nights)}}
		stop := c.ledger.Timer(metrics.StageBooking)
		err := c.http.GetJSON(ctx, endpoint, params, map[string]string{"X-Api-Key": c.cfg.APIKey}, &resp)
		stop()

		switch {
		case err != nil:
			c.log.Warn("booking provider failed, using fallback link", map[string]interface{}{
				"city":  city,
				"error": err.Error(),
			})
		case resp.Deeplink != "":
			link = BookingLink{URL: resp.Deeplink, Source: BookingSourceProvider}
		case resp.URL != "":
			link = BookingLink{URL: resp.URL, Source: BookingSourceProvider}
		}
	}

	if err := c.cache.Set(ctx, key, link, c.bookingTTL); err != nil {
		c.log.Warn("booking cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return link
}

// FallbackHotelLink is a Google Maps hotel search for city.
func FallbackHotelLink(city, checkin string, nights int) string {
	return fmt.Sprintf("https://www.google.com/maps/search/hotels+in+%s?checkin=%s&nights=%d",
		strings.ReplaceAll(city, " ", "+"), checkin, nights)
}

package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"FlightWatch/internal/model"
)

const (
	carouselCellSelector = `[data-ref="flight-carousel__date-item"]`
	flightPriceSelector  = `[data-ref="flight-card-price__price"]`
)

// carouselJS pulls every rendered carousel cell into a JSON-friendly
// shape. Selector coupling lives here and nowhere else.
const carouselJS = `Array.from(document.querySelectorAll('[data-ref="flight-carousel__date-item"]')).map(el => {
	const price = el.querySelector('[data-ref="flight-carousel__price"]');
	return {
		date: el.getAttribute('data-id') || '',
		disabled: el.classList.contains('date-item--disabled'),
		priceText: price ? price.textContent.trim() : ''
	};
})`

type carouselCell struct {
	Date      string `json:"date"`
	Disabled  bool   `json:"disabled"`
	PriceText string `json:"priceText"`
}

// BrowserSource drives the provider's booking pages through a headless
// Chrome session. One BrowserSource is one browsing session; both legs
// of a run share it.
type BrowserSource struct {
	ctx     context.Context
	timeout time.Duration
	log     zerolog.Logger
}

// NewBrowserSource starts a browser session. The returned cancel func
// tears the whole session down and must be called exactly once.
func NewBrowserSource(parent context.Context, headless bool, timeout time.Duration, log zerolog.Logger) (*BrowserSource, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}
	return &BrowserSource{ctx: browserCtx, timeout: timeout, log: log}, cancel
}

func tripURL(origin, destination string, date time.Time) string {
	return fmt.Sprintf(
		"https://www.ryanair.com/es/es/trip/flights/select?adults=1&dateOut=%s&originIata=%s&destinationIata=%s&isConnectedFlight=false",
		date.Format("2006-01-02"), origin, destination)
}

// ReadDateCarousel loads the selection page centered on the middle of
// the window and scrapes every rendered date cell.
func (b *BrowserSource) ReadDateCarousel(ctx context.Context, origin, destination string, window []time.Time) ([]model.CandidateDate, error) {
	if len(window) == 0 {
		return nil, nil
	}
	center := window[len(window)/2]

	runCtx, cancel := b.boundedContext(ctx)
	defer cancel()

	var cells []carouselCell
	err := chromedp.Run(runCtx,
		chromedp.Navigate(tripURL(origin, destination, center)),
		chromedp.WaitVisible(carouselCellSelector, chromedp.ByQuery),
		chromedp.Evaluate(carouselJS, &cells),
	)
	if err != nil {
		return nil, b.structural("date carousel", origin, destination, err)
	}

	wanted := make(map[string]bool, len(window))
	for _, d := range window {
		wanted[d.Format("2006-01-02")] = true
	}

	candidates := make([]model.CandidateDate, 0, len(cells))
	for _, cell := range cells {
		date, err := time.Parse("2006-01-02", cell.Date)
		if err != nil || !wanted[cell.Date] {
			continue
		}
		c := model.CandidateDate{
			Date:       date,
			Available:  !cell.Disabled,
			DayOfWeek:  date.Weekday().String(),
			DayOfMonth: date.Day(),
			Month:      date.Month().String(),
		}
		if price, ok := parsePriceText(cell.PriceText); ok {
			c.Price = price
			c.HasPrice = true
		}
		candidates = append(candidates, c)
	}
	b.log.Debug().
		Str("route", model.RouteCode(origin, destination)).
		Int("cells", len(cells)).
		Int("candidates", len(candidates)).
		Msg("carousel read")
	return candidates, nil
}

// ReadDetailedPrice opens the selection page for the exact date and
// reads the first flight card's price.
func (b *BrowserSource) ReadDetailedPrice(ctx context.Context, origin, destination string, date time.Time) (float64, bool, error) {
	runCtx, cancel := b.boundedContext(ctx)
	defer cancel()

	var priceText string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(tripURL(origin, destination, date)),
		chromedp.WaitVisible(flightPriceSelector, chromedp.ByQuery),
		chromedp.Text(flightPriceSelector, &priceText, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		// A card that never appears usually means no flights that day,
		// which is a soft miss, not a structural failure of the page.
		if errors.Is(err, context.DeadlineExceeded) {
			b.log.Debug().
				Str("route", model.RouteCode(origin, destination)).
				Str("date", date.Format("2006-01-02")).
				Msg("no flight card rendered")
			return 0, false, nil
		}
		return 0, false, b.structural("flight card", origin, destination, err)
	}
	price, ok := parsePriceText(priceText)
	return price, ok, nil
}

func (b *BrowserSource) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancelMerge := mergeDone(b.ctx, ctx)
	bounded, cancelTimeout := context.WithTimeout(merged, b.timeout)
	return bounded, func() {
		cancelTimeout()
		cancelMerge()
	}
}

func (b *BrowserSource) structural(what, origin, destination string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s for %s never appeared", model.ErrExtractionTimeout, what, model.RouteCode(origin, destination))
	}
	return fmt.Errorf("read %s for %s: %w", what, model.RouteCode(origin, destination), err)
}

// mergeDone derives a context from the browser session context that is
// also cancelled when the caller's context ends.
func mergeDone(session, caller context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(session)
	stop := context.AfterFunc(caller, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

var priceDigits = regexp.MustCompile(`[\d.]+`)

// parsePriceText extracts a number from provider price text such as
// "39,99 €", "1.039,99 zł" or "104,99". Thousands dots are stripped,
// the decimal comma becomes a dot.
func parsePriceText(text string) (float64, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	match := priceDigits.FindString(normalized)
	if match == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

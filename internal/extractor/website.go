package extractor

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/catalog-cli/internal/dedup"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/resilience"
)

// genericHeadings are page headings that never name an offering.
var genericHeadings = map[string]struct{}{
	"about":            {},
	"about us":         {},
	"contact":          {},
	"contact us":       {},
	"home":             {},
	"faq":              {},
	"faqs":             {},
	"our team":         {},
	"testimonials":     {},
	"reviews":          {},
	"blog":             {},
	"news":             {},
	"careers":          {},
	"privacy policy":   {},
	"terms of service": {},
	"get a quote":      {},
	"why choose us":    {},
}

var priceRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

var offeringPathRe = regexp.MustCompile(`(?i)/(products?|services?|shop|catalog|menu)(/|$)`)

// Website extracts candidates from scraped website pages. When the tenant
// has no cached pages and live fetch is enabled, it pulls the homepage
// directly, rate limited, and keeps the parsed pages in a small LRU so
// repeated runs don't refetch.
type Website struct {
	store   SourceStore
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, []PagePayload]
}

// NewWebsite creates the website adapter.
func NewWebsite(store SourceStore, cfg Config) *Website {
	perSec := cfg.FetchRatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	cache, _ := lru.New[string, []PagePayload](128)
	return &Website{
		store:   store,
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		cache:   cache,
	}
}

func (w *Website) Source() model.CandidateSource { return model.SourceWebsite }

// Extract parses the tenant's scraped pages for offering signals:
// product/service card markup, section headings, and catalog-path nav links.
func (w *Website) Extract(ctx context.Context, tenantID string) (*model.SingleSourceResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return failure(model.SourceWebsite, start, err), err
	}

	pages, err := w.store.Pages(ctx, tenantID)
	if err != nil {
		return failure(model.SourceWebsite, start, err), nil
	}

	fromCache := false
	if len(pages) == 0 && w.cfg.LiveFetch {
		pages, fromCache, err = w.fetchHomepage(ctx, tenantID)
		if err != nil {
			return failure(model.SourceWebsite, start, err), ctx.Err()
		}
	}
	if len(pages) == 0 {
		err := eris.New("website: no scraped pages cached for tenant")
		return failure(model.SourceWebsite, start, err), nil
	}

	best := make(map[string]model.ExtractedCandidate)
	order := []string{}
	add := func(c model.ExtractedCandidate) {
		key := dedup.NormalizeName(c.Name)
		if key == "" {
			return
		}
		existing, ok := best[key]
		if !ok {
			best[key] = c
			order = append(order, key)
			return
		}
		if c.Confidence > existing.Confidence {
			c.Tags = unionStrings(existing.Tags, c.Tags)
			best[key] = c
		}
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return failure(model.SourceWebsite, start, err), err
		}
		w.parsePage(page, add)
	}

	cands := make([]model.ExtractedCandidate, 0, len(order))
	for _, key := range order {
		cands = append(cands, best[key])
	}

	zap.L().Debug("website: extraction complete",
		zap.String("tenant", tenantID),
		zap.Int("pages", len(pages)),
		zap.Int("candidates", len(cands)),
	)

	return finalize(model.SourceWebsite, cands, start, w.cfg.maxCandidates(), map[string]any{
		"pages":      len(pages),
		"from_cache": fromCache,
	}), nil
}

// parsePage pulls offering candidates out of one page's HTML.
func (w *Website) parsePage(page PagePayload, add func(model.ExtractedCandidate)) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		zap.L().Warn("website: unparseable page", zap.String("url", page.URL), zap.Error(err))
		return
	}

	// Product/service card markup is the strongest signal.
	doc.Find(`[class*="product"], [class*="service"], [class*="offering"]`).Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find("h1, h2, h3, h4, .title, .name").First().Text())
		if name == "" {
			return
		}
		c := model.ExtractedCandidate{
			Name:       clip(name),
			IsService:  serviceWords.MatchString(name),
			SourceURL:  page.URL,
			Confidence: 0.75,
			Raw:        page.URL,
		}
		if desc := strings.TrimSpace(sel.Find("p, .description").First().Text()); desc != "" {
			c.Description = clip(desc)
		}
		if m := priceRe.FindStringSubmatch(sel.Text()); m != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && v >= 0 {
				c.Price = &v
				c.Currency = "USD"
			}
		}
		if src, ok := sel.Find("img").First().Attr("src"); ok && src != "" {
			c.Images = []string{src}
		}
		add(c)
	})

	// Section headings on offering-path pages, or anywhere as a weak signal.
	onOfferingPage := offeringPathRe.MatchString(page.URL)
	doc.Find("h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		if _, generic := genericHeadings[strings.ToLower(name)]; generic {
			return
		}
		conf := 0.5
		if onOfferingPage {
			conf = 0.65
		}
		add(model.ExtractedCandidate{
			Name:       clip(name),
			IsService:  serviceWords.MatchString(name),
			SourceURL:  page.URL,
			Confidence: conf,
			Raw:        page.URL,
		})
	})

	// Nav links into catalog paths name offerings directly.
	doc.Find("nav a, header a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !offeringPathRe.MatchString(href) {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		if _, generic := genericHeadings[strings.ToLower(name)]; generic {
			return
		}
		add(model.ExtractedCandidate{
			Name:       clip(name),
			IsService:  serviceWords.MatchString(name),
			SourceURL:  page.URL,
			Confidence: 0.6,
			Raw:        href,
		})
	})
}

// fetchHomepage pulls the tenant homepage live, honoring the shared rate
// limiter, and memoizes the result per URL.
func (w *Website) fetchHomepage(ctx context.Context, tenantID string) ([]PagePayload, bool, error) {
	tenant, ok, err := w.store.Tenant(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}
	if !ok || tenant.WebsiteURL == "" {
		return nil, false, nil
	}

	if cached, ok := w.cache.Get(tenant.WebsiteURL); ok {
		return cached, true, nil
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	var body []byte
	err = resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, tenant.WebsiteURL, nil)
		if err != nil {
			return eris.Wrap(err, "website: build fetch request")
		}
		resp, err := w.client.Do(req)
		if err != nil {
			return eris.Wrapf(err, "website: fetch %s", tenant.WebsiteURL)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("website: fetch %s returned %d", tenant.WebsiteURL, resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		return eris.Wrap(err, "website: read fetch body")
	})
	if err != nil {
		return nil, false, err
	}

	pages := []PagePayload{{URL: tenant.WebsiteURL, HTML: string(body)}}
	w.cache.Add(tenant.WebsiteURL, pages)
	return pages, false, nil
}

// clip bounds free text to the candidate name limit.
// clip truncates to the name limit on a rune boundary.
func clip(s string) string {
	runes := []rune(s)
	if len(runes) > model.MaxNameLength {
		return string(runes[:model.MaxNameLength])
	}
	return s
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

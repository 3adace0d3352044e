// Package ingestion turns job posting URLs into structured job records:
// guarded fetch, platform-aware text extraction, then LLM extraction.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobcraft/internal/fetch"
	"github.com/jonathan/jobcraft/internal/llm"
	"github.com/jonathan/jobcraft/internal/ratelimit"
	"github.com/jonathan/jobcraft/internal/retry"
	"github.com/jonathan/jobcraft/internal/security"
	"github.com/jonathan/jobcraft/internal/types"
)

// DefaultCacheTTL is how long a scraped job stays cached.
const DefaultCacheTTL = 24 * time.Hour

// DefaultConcurrency bounds ScrapeAll when no positive value is given.
const DefaultConcurrency = 4

// Cache stores scraped jobs by URL. Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, url string) (*types.Job, error)
	Put(ctx context.Context, job *types.Job, ttl time.Duration) error
}

// Scraper scrapes job postings. It is safe for concurrent use.
type Scraper struct {
	caller    llm.Caller
	fetchOpts *fetch.Options
	render    fetch.Renderer
	cache     Cache
	cacheTTL  time.Duration
	invoker   *retry.Invoker
	hosts     *ratelimit.Limiter
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithFetchOptions sets the options used for page fetches.
func WithFetchOptions(opts *fetch.Options) Option {
	return func(s *Scraper) { s.fetchOpts = opts }
}

// WithRenderer enables the headless browser fallback for thin pages.
func WithRenderer(r fetch.Renderer) Option {
	return func(s *Scraper) { s.render = r }
}

// WithCache sets the job cache and its TTL. A ttl <= 0 uses DefaultCacheTTL.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Scraper) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithInvoker sets the retry policy for page fetches and model calls.
func WithInvoker(inv *retry.Invoker) Option {
	return func(s *Scraper) { s.invoker = inv }
}

// WithHostLimiter throttles fetches per host.
func WithHostLimiter(l *ratelimit.Limiter) Option {
	return func(s *Scraper) { s.hosts = l }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scraper) { s.logger = logger }
}

// NewScraper creates a Scraper that extracts fields with caller.
func NewScraper(caller llm.Caller, opts ...Option) *Scraper {
	s := &Scraper{
		fetchOpts: fetch.DefaultOptions(),
		cacheTTL:  DefaultCacheTTL,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.invoker == nil {
		s.invoker = retry.New(retry.DefaultPolicy(), retry.WithLogger(s.logger))
	}
	s.caller = llm.NewRetryingCaller(caller, s.invoker)
	return s
}

// Scrape fetches urlStr and returns the structured job.
func (s *Scraper) Scrape(ctx context.Context, urlStr string) (*types.Job, error) {
	urlStr = strings.TrimSpace(urlStr)
	if err := fetch.CheckURL(urlStr, s.fetchOpts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	log := s.logger.With().Str("url", security.RedactURL(urlStr)).Logger()

	if job := s.cached(ctx, urlStr, log); job != nil {
		return job, nil
	}

	platform := fetch.DetectPlatform(urlStr)
	log.Debug().Str("platform", string(platform)).Msg("fetching job posting")

	result, err := retry.Do(ctx, s.invoker, func(ctx context.Context) (*fetch.Result, error) {
		if err := s.waitHost(ctx, urlStr); err != nil {
			return nil, err
		}
		return fetch.URL(ctx, urlStr, s.fetchOpts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	text, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}
	log.Debug().Int("chars", len(text)).Msg("extracted text")

	if s.render != nil && fetch.ShouldUseBrowser(text) {
		log.Debug().Int("chars", len(text)).Int("min", fetch.MinContentLength).
			Msg("content too short, falling back to browser rendering")
		text = s.renderText(ctx, urlStr, text, contentSelectors, noiseSelectors, log)
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no text found", ErrContentExtractionFailed)
	}

	extracted, err := ExtractJob(ctx, s.caller, cleaned)
	if err != nil {
		if errors.Is(err, ErrLLMExtractionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrLLMExtractionFailed, err)
	}

	job := &types.Job{
		ID:            uuid.New(),
		Role:          extracted.Role,
		Company:       extracted.Company,
		Description:   extracted.Description,
		Location:      extracted.Location,
		Link:          urlStr,
		Platform:      string(platform),
		SuggestedName: SuggestedName(urlStr),
		ContentHash:   computeHash(cleaned),
		ScrapedAt:     s.now().UTC(),
	}
	if err := ValidateJob(job); err != nil {
		return nil, err
	}

	log.Info().Str("role", job.Role).Str("company", job.Company).Str("location", job.Location).
		Str("suggested_name", job.SuggestedName).Msg("job extracted")

	if s.cache != nil {
		if err := s.cache.Put(ctx, job, s.cacheTTL); err != nil {
			log.Warn().Str("error", security.SanitizeForLogging(err.Error())).Msg("failed to cache job")
		}
	}

	return job, nil
}

func (s *Scraper) cached(ctx context.Context, urlStr string, log zerolog.Logger) *types.Job {
	if s.cache == nil {
		return nil
	}
	job, err := s.cache.Get(ctx, urlStr)
	if err != nil {
		log.Warn().Str("error", security.SanitizeForLogging(err.Error())).Msg("job cache lookup failed")
		return nil
	}
	if job != nil {
		log.Debug().Msg("job cache hit")
	}
	return job
}

func (s *Scraper) waitHost(ctx context.Context, urlStr string) error {
	if s.hosts == nil {
		return nil
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return retry.Permanent(err)
	}
	return s.hosts.Wait(ctx, strings.ToLower(parsed.Hostname()))
}

// renderText re-extracts from browser-rendered HTML, keeping fallback when
// rendering fails.
func (s *Scraper) renderText(ctx context.Context, urlStr, fallback string, contentSelectors, noiseSelectors []string, log zerolog.Logger) string {
	html, err := s.render(ctx, urlStr)
	if err != nil {
		log.Warn().Str("error", security.SanitizeForLogging(err.Error())).Msg("browser rendering failed, using HTTP content")
		return fallback
	}
	text, err := fetch.ExtractMainText(html, contentSelectors, noiseSelectors...)
	if err != nil {
		log.Warn().Str("error", err.Error()).Msg("browser content extraction failed")
		return fallback
	}
	log.Debug().Int("chars", len(text)).Msg("browser extracted text")
	return text
}

// Result is the outcome for one URL of ScrapeAll.
type Result struct {
	URL string
	Job *types.Job
	Err error
}

// ScrapeAll scrapes urls with at most concurrency scrapes in flight.
// Results are in input order; a failed URL does not stop the others.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			job, err := s.Scrape(ctx, u)
			results[i] = Result{URL: u, Job: job, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

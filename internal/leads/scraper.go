package leads

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"manoya/internal/repository"
)

const (
	mapsSearchURL = "https://www.google.com/maps/search/"
	feedSelector  = `div[role="feed"]`
	feedTimeout   = 5 * time.Second
)

// extractCardsJS hace scroll del feed hasta el final y devuelve las tarjetas.
const extractCardsJS = `
(async function() {
	const wrapper = document.querySelector('div[role="feed"]');
	if (wrapper) {
		let total = 0;
		while (total < wrapper.scrollHeight) {
			wrapper.scrollBy(0, 1000);
			total += 1000;
			await new Promise(r => setTimeout(r, 100));
		}
	}
	return Array.from(document.querySelectorAll('div[role="article"]')).map(item => {
		const site = item.querySelector('a[data-value="Website"]');
		return {text: item.innerText, website: site ? site.getAttribute('href') : ''};
	});
})()
`

// Stats resume una corrida.
type Stats struct {
	Queries int
	Found   int
	Saved   int
	Failed  int
}

// Scraper recorre oficios x ciudades en Google Maps y guarda los leads con
// telefono en el directorio.
type Scraper struct {
	repo     repository.ProfessionalRepository
	logger   *zap.Logger
	headless bool
	dryRun   bool
}

func NewScraper(repo repository.ProfessionalRepository, logger *zap.Logger, headless, dryRun bool) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{repo: repo, logger: logger, headless: headless, dryRun: dryRun}
}

func (s *Scraper) browser(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1280, 900),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	return tabCtx, func() {
		cancelTab()
		cancelAlloc()
	}
}

// Run busca cada combinacion. Los errores de una busqueda o de un insert se
// loguean y la corrida sigue.
func (s *Scraper) Run(ctx context.Context, services, cities []string) (Stats, error) {
	tabCtx, cancel := s.browser(ctx)
	defer cancel()

	var stats Stats
	for _, service := range services {
		for _, city := range cities {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			query := Query(service, city)
			stats.Queries++
			s.logger.Info("searching", zap.String("query", query))

			cards, err := s.search(tabCtx, query)
			if err != nil {
				s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
				continue
			}
			found := ParseCards(cards)
			stats.Found += len(found)
			s.logger.Info("leads found", zap.String("query", query), zap.Int("count", len(found)))

			saved, failed := s.save(ctx, found, service, city)
			stats.Saved += saved
			stats.Failed += failed
		}
	}
	return stats, nil
}

func (s *Scraper) search(ctx context.Context, query string) ([]RawCard, error) {
	if err := chromedp.Run(ctx, chromedp.Navigate(mapsSearchURL+url.PathEscape(query))); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, feedTimeout)
	err := chromedp.Run(waitCtx, chromedp.WaitVisible(feedSelector, chromedp.ByQuery))
	cancel()
	if err != nil {
		s.logger.Warn("results feed not found quickly", zap.String("query", query))
	}

	var cards []RawCard
	err = chromedp.Run(ctx, chromedp.Evaluate(extractCardsJS, &cards, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return nil, fmt.Errorf("extract cards: %w", err)
	}
	return cards, nil
}

func (s *Scraper) save(ctx context.Context, found []Lead, service, city string) (saved, failed int) {
	for _, lead := range found {
		p := lead.ToProfessional(service, city)
		if s.dryRun {
			s.logger.Info("lead (dry run)", zap.String("name", p.Name), zap.String("phone", p.Phone), zap.String("trade", string(p.Trade)))
			continue
		}
		if err := p.Validate(); err != nil {
			s.logger.Warn("invalid lead", zap.String("name", p.Name), zap.Error(err))
			failed++
			continue
		}
		if err := s.repo.Create(ctx, p); err != nil {
			s.logger.Error("save lead failed", zap.String("name", p.Name), zap.Error(err))
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

package universe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/httputil"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// WikipediaProvider scrapes the S&P 500 constituents table
// 실패 시 기본 유니버스로 대체 (Source = "default")
type WikipediaProvider struct {
	client *httputil.Client
	url    string
	limit  int
	logger *logger.Logger
}

// NewWikipedia creates a provider taking the first limit symbols
func NewWikipedia(client *httputil.Client, url string, limit int, log *logger.Logger) *WikipediaProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &WikipediaProvider{client: client, url: url, limit: limit, logger: log}
}

// Universe fetches and parses the constituents table
func (p *WikipediaProvider) Universe(ctx context.Context) (*contracts.Universe, error) {
	symbols, err := p.fetch(ctx)
	if err != nil || len(symbols) == 0 {
		if err == nil {
			err = ErrEmptyUniverse
		}
		p.logger.WithError(err).Warn("S&P 500 fetch failed, using default universe")
		return &contracts.Universe{
			Source:   "default",
			BuiltAt:  time.Now(),
			Symbols:  dedupe(Default(), p.limit),
			Excluded: make(map[string]string),
		}, nil
	}

	p.logger.WithField("count", len(symbols)).Info("Fetched S&P 500 symbols")
	return &contracts.Universe{
		Source:   SourceWikipedia,
		BuiltAt:  time.Now(),
		Symbols:  dedupe(symbols, p.limit),
		Excluded: make(map[string]string),
	}, nil
}

func (p *WikipediaProvider) fetch(ctx context.Context) ([]string, error) {
	resp, err := p.client.Get(ctx, p.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httputil.StatusError{URL: p.url, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}
	return parseConstituents(doc), nil
}

// parseConstituents reads the first column of the first wikitable
// 위키 표기 BRK.B → 시세 표기 BRK-B
func parseConstituents(doc *goquery.Document) []string {
	table := doc.Find("table#constituents")
	if table.Length() == 0 {
		table = doc.Find("table.wikitable").First()
	}

	var symbols []string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		sym := strings.TrimSpace(cells.Eq(0).Text())
		if sym == "" {
			return
		}
		symbols = append(symbols, strings.ReplaceAll(sym, ".", "-"))
	})
	return symbols
}

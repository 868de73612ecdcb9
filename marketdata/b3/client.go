package b3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/net/html"

	"github.com/rustyeddy/ratecheck/curve"
	"github.com/rustyeddy/ratecheck/internal/ptbr"
	"github.com/rustyeddy/ratecheck/marketdata"
)

const (
	// DefaultBaseURL is the BM&F bulletin host that publishes reference rates.
	DefaultBaseURL = "https://www2.bmf.com.br"

	txRefPath = "/pages/portal/bmfbovespa/boletim1/TxRef1.asp"

	// CurvePRE selects the DI x pré curve.
	CurvePRE = "PRE"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Client downloads reference-rate tables from the B3 bulletin page.
type Client struct {
	baseURL    string
	curve      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		curve:     CurvePRE,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With(slog.String("component", "b3")),
	}
}

func (c *Client) url(date civil.Date) string {
	params := url.Values{}
	params.Set("Data", fmt.Sprintf("%02d/%02d/%04d", date.Day, int(date.Month), date.Year))
	params.Set("Data1", fmt.Sprintf("%04d%02d%02d", date.Year, int(date.Month), date.Day))
	params.Set("slcTaxa", c.curve)
	return c.baseURL + txRefPath + "?" + params.Encode()
}

// Snapshot fetches the curve table for date. An empty result means the page
// carried no rows, which is how B3 answers for dates not yet published.
func (c *Client) Snapshot(ctx context.Context, date civil.Date) ([]marketdata.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(date), nil)
	if err != nil {
		return nil, fmt.Errorf("b3: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("b3: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("b3: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	quotes, skipped, err := ParseTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("b3: parse %v: %w", date, err)
	}
	if skipped > 0 {
		c.logger.WarnContext(ctx, "skipped unparseable rows",
			slog.String("date", date.String()),
			slog.Int("skipped", skipped),
		)
	}
	c.logger.DebugContext(ctx, "fetched curve table",
		slog.String("date", date.String()),
		slog.Int("rows", len(quotes)),
	)
	return quotes, nil
}

// ParseTable extracts (dias corridos, taxa 252) pairs from the bulletin
// markup. Data cells carry class tabelaConteudo1 or tabelaConteudo2 and come
// in rows of three: days, 252 rate, 360 rate. Rows that do not parse are
// skipped and counted.
func ParseTable(r io.Reader) (quotes []marketdata.Quote, skipped int, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, 0, err
	}

	var cells []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" && isContentCell(n) {
			cells = append(cells, n)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)

	for i := 0; i+1 < len(cells); i += 3 {
		du, err := ptbr.ParseInt(text(cells[i]))
		if err != nil {
			skipped++
			continue
		}
		rate, err := ptbr.ParseFloat(text(cells[i+1]))
		if err != nil {
			skipped++
			continue
		}
		quotes = append(quotes, marketdata.Quote{DU: du, Rate: curve.Percent(rate)})
	}
	return quotes, skipped, nil
}

func isContentCell(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			if cls == "tabelaConteudo1" || cls == "tabelaConteudo2" {
				return true
			}
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			collect(ch)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}

package registry

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"clinical-trials-agent-backend/config"
	"clinical-trials-agent-backend/model"
	"clinical-trials-agent-backend/utils"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	esearchPath = "/esearch.fcgi"
	efetchPath  = "/efetch.fcgi"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// PubMedClient 通过 NCBI E-utilities 查询试验关联的 PubMed 文献
type PubMedClient struct {
	apiKey      string
	maxArticles int
	http        *resty.Client
}

var _ PublicationSource = &PubMedClient{}

func NewPubMedClient(cfg config.PubMedConfig, httpClient *http.Client) *PubMedClient {
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(utils.WithTimeout(cfg.Timeout))
	}
	return &PubMedClient{
		apiKey:      cfg.APIKey,
		maxArticles: cfg.MaxArticles,
		http:        utils.NewRestyClient(httpClient, strings.TrimRight(cfg.BaseURL, "/")),
	}
}

// Publications 合并试验引用中的 PMID 与按 NCTID 检索到的 PMID，去重后批量获取文献。
// 没有任何文献时返回空切片
func (c *PubMedClient) Publications(ctx context.Context, nctID string, pmids []string) ([]model.Publication, error) {
	if c.maxArticles == 0 {
		return []model.Publication{}, nil
	}

	ids := dedupe(pmids)
	if nctID != "" && len(ids) < c.maxArticles {
		found, err := c.search(ctx, nctID)
		if err != nil {
			return []model.Publication{}, err
		}
		ids = dedupe(append(ids, found...))
	}
	if len(ids) > c.maxArticles {
		ids = ids[:c.maxArticles]
	}
	if len(ids) == 0 {
		return []model.Publication{}, nil
	}

	return c.fetch(ctx, ids)
}

// search 以 NCTID 作为次要来源标识检索 PMID
func (c *PubMedClient) search(ctx context.Context, nctID string) ([]string, error) {
	params := c.params()
	params.Set("term", nctID+"[si]")
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(c.maxArticles))

	body, err := c.get(ctx, esearchPath, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search pubmed: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to search pubmed: %w", ErrMalformedJSON)
	}
	return stringsOf(gjson.GetBytes(body, "esearchresult.idlist")), nil
}

func (c *PubMedClient) fetch(ctx context.Context, ids []string) ([]model.Publication, error) {
	params := c.params()
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, efetchPath, params)
	if err != nil {
		return []model.Publication{}, fmt.Errorf("failed to fetch pubmed articles: %w", err)
	}

	pubs, err := parseArticles(body)
	if err != nil {
		return []model.Publication{}, fmt.Errorf("failed to parse pubmed articles: %w", err)
	}
	return pubs, nil
}

func (c *PubMedClient) params() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return params
}

func (c *PubMedClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pubmed returned %d: %s", resp.StatusCode(), truncate(resp.String(), maxErrorBody))
	}
	return resp.Body(), nil
}

type articleSet struct {
	Articles []article `xml:"PubmedArticle"`
}

type article struct {
	PMID        string         `xml:"MedlineCitation>PMID"`
	Title       innerText      `xml:"MedlineCitation>Article>ArticleTitle"`
	Abstract    []abstractText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	ArticleDate *articleDate   `xml:"MedlineCitation>Article>ArticleDate"`
	PubDate     articleDate    `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate"`
}

type innerText struct {
	XML string `xml:",innerxml"`
}

func (t innerText) String() string {
	return cleanText(t.XML)
}

type abstractText struct {
	Label       string `xml:"Label,attr"`
	NlmCategory string `xml:"NlmCategory,attr"`
	XML         string `xml:",innerxml"`
}

// cleanText 去除 <i>、<sup> 等行内标记并还原实体
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

type articleDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

func (d articleDate) String() string {
	if d.Year == "" {
		return d.MedlineDate
	}
	parts := []string{d.Year}
	for _, p := range []string{d.Month, d.Day} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}

func parseArticles(body []byte) ([]model.Publication, error) {
	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, err
	}

	pubs := make([]model.Publication, 0, len(set.Articles))
	for _, a := range set.Articles {
		if a.PMID == "" {
			continue
		}
		pubs = append(pubs, a.publication())
	}
	return pubs, nil
}

func (a article) publication() model.Publication {
	pub := model.Publication{
		Title:           a.Title.String(),
		PubMedID:        a.PMID,
		PublicationDate: a.PubDate.String(),
	}
	if a.ArticleDate != nil && a.ArticleDate.Year != "" {
		pub.PublicationDate = a.ArticleDate.String()
	}

	var abstract, methods, results, conclusions []string
	for _, section := range a.Abstract {
		text := cleanText(section.XML)
		if text == "" {
			continue
		}
		switch sectionKind(section) {
		case "METHODS":
			methods = append(methods, text)
		case "RESULTS":
			results = append(results, text)
		case "CONCLUSIONS":
			conclusions = append(conclusions, text)
		default:
			abstract = append(abstract, text)
		}
	}
	pub.Abstract = strings.Join(abstract, "\n")
	pub.Methods = strings.Join(methods, "\n")
	pub.Results = strings.Join(results, "\n")
	pub.Conclusions = strings.Join(conclusions, "\n")
	return pub
}

// sectionKind 优先使用 NlmCategory，缺失时根据 Label 判断
func sectionKind(s abstractText) string {
	category := strings.ToUpper(s.NlmCategory)
	if category == "" {
		category = strings.ToUpper(s.Label)
	}
	switch {
	case strings.Contains(category, "METHOD"):
		return "METHODS"
	case strings.Contains(category, "RESULT"):
		return "RESULTS"
	case strings.Contains(category, "CONCLUSION"):
		return "CONCLUSIONS"
	}
	return ""
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

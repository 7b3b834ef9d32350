package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"clinical-trials-agent-backend/config"
	"clinical-trials-agent-backend/model"
	"clinical-trials-agent-backend/utils"

	"github.com/go-resty/resty/v2"
)

const (
	studiesPath = "/studies"

	retryMinDelay  = 500 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
	retryMaxJitter = 250 * time.Millisecond

	// 错误信息中保留的响应体长度
	maxErrorBody = 200
)

var (
	ErrEmptyQuery    = errors.New("query has no filters")
	ErrMalformedJSON = errors.New("malformed registry response")
)

// RegistryError 获取试验数据时的传输、HTTP 状态或解析错误
type RegistryError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RegistryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("registry %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("registry %s: %v", e.Op, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// PublicationSource 按试验编号查询关联文献
type PublicationSource interface {
	Publications(ctx context.Context, nctID string, pmids []string) ([]model.Publication, error)
}

type Client struct {
	pageSize     int
	http         *resty.Client
	retryPolicy  utils.RetryPolicy
	publications PublicationSource
}

type Option func(*Client)

func WithRetryPolicy(policy utils.RetryPolicy) Option {
	return func(c *Client) {
		c.retryPolicy = policy
	}
}

func NewClient(cfg config.RegistryConfig, publications PublicationSource, opts ...Option) *Client {
	c := &Client{
		pageSize: cfg.PageSize,
		http: utils.NewRestyClient(
			utils.NewHTTPClient(utils.WithTimeout(cfg.Timeout)),
			strings.TrimRight(cfg.BaseURL, "/"),
		).SetHeader("Accept", "application/json"),
		retryPolicy: utils.RetryPolicy{
			Name:      "registry",
			Attempts:  cfg.Attempts,
			MinDelay:  retryMinDelay,
			MaxDelay:  retryMaxDelay,
			MaxJitter: retryMaxJitter,
		},
		publications: publications,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryPolicy.RetryIf == nil {
		c.retryPolicy.RetryIf = retryable
	}
	return c
}

func (c *Client) PageSize() int {
	return c.pageSize
}

// SearchStudies 查询试验列表，最多返回 pageSize 条记录，
// TotalCount 记录服务端报告的匹配总数
func (c *Client) SearchStudies(ctx context.Context, q model.Query) (*model.TrialsResult, error) {
	if !q.IsList() {
		return nil, &RegistryError{Op: "search", Err: ErrEmptyQuery}
	}

	body, err := c.get(ctx, "search", studiesPath, c.searchParams(q))
	if err != nil {
		return nil, err
	}

	result, err := parseStudies(body, c.pageSize)
	if err != nil {
		return nil, &RegistryError{Op: "search", Err: err}
	}
	result.Query = q

	slog.Debug("registry search completed",
		"total_count", result.TotalCount,
		"records", len(result.Studies),
	)
	return result, nil
}

// GetStudy 查询单个试验详情并补充关联文献。文献查询失败时返回空列表
func (c *Client) GetStudy(ctx context.Context, nctID string) (*model.StudyDetail, error) {
	id, err := model.NormalizeNCTID(nctID)
	if err != nil {
		return nil, &RegistryError{Op: "detail", Err: err}
	}

	params := url.Values{}
	params.Set("format", "json")
	body, err := c.get(ctx, "detail", studiesPath+"/"+url.PathEscape(id), params)
	if err != nil {
		return nil, err
	}

	detail, err := parseStudyDetail(body)
	if err != nil {
		return nil, &RegistryError{Op: "detail", Err: err}
	}

	detail.Publications = []model.Publication{}
	if c.publications != nil {
		pubs, err := c.publications.Publications(ctx, detail.NCTID, detail.ReferencePMIDs)
		if err != nil {
			slog.Warn("Failed to fetch publications, continuing without them",
				"nct_id", detail.NCTID,
				"err", err,
			)
		} else if pubs != nil {
			detail.Publications = pubs
		}
	}

	return detail, nil
}

func (c *Client) searchParams(q model.Query) url.Values {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("countTotal", "true")
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	setIfNotEmpty(params, "query.cond", q.Condition)
	setIfNotEmpty(params, "query.intr", q.Treatment)
	setIfNotEmpty(params, "query.locn", q.Location)
	setIfNotEmpty(params, "query.term", q.Other)

	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			statuses = append(statuses, string(s))
		}
		// 多个状态之间为 OR 关系
		params.Set("filter.overallStatus", strings.Join(statuses, "|"))
	}
	return params
}

func setIfNotEmpty(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

// get 发送 GET 请求，仅对传输错误、429 和 5xx 重试
func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	var body []byte
	err := c.retryPolicy.Do(ctx, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParamsFromValues(params).
			Get(path)
		if err != nil {
			return &RegistryError{Op: op, Err: err}
		}
		if !resp.IsSuccess() {
			return &RegistryError{
				Op:         op,
				StatusCode: resp.StatusCode(),
				Err:        errors.New(truncate(resp.String(), maxErrorBody)),
			}
		}

		body = resp.Body()
		return nil
	})
	if err != nil {
		var regErr *RegistryError
		if errors.As(err, &regErr) {
			return nil, regErr
		}
		return nil, &RegistryError{Op: op, Err: err}
	}
	return body, nil
}

// retryable 传输错误、429 与 5xx 可重试，其余状态码直接返回
func retryable(err error) bool {
	var regErr *RegistryError
	if !errors.As(err, &regErr) {
		return false
	}
	return regErr.StatusCode == 0 ||
		regErr.StatusCode == http.StatusTooManyRequests ||
		regErr.StatusCode >= http.StatusInternalServerError
}

// truncate 截断到不超过 n 字节，不拆分多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

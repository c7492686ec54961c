package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Credentials holds the OAuth "script" app credentials plus the bot account
// login used for the password grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Client implements ActivitySource and ActionExecutor over the OAuth HTTP API.
// Zero-value fields are filled with defaults by NewClient; override before
// first use.
type Client struct {
	Client    *http.Client
	Limiter   *rate.Limiter
	Logger    *slog.Logger
	UserAgent string
	// Host is the API base, AuthHost the token endpoint base.
	Host     string
	AuthHost string

	creds Credentials

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

var (
	_ ActivitySource = (*Client)(nil)
	_ ActionExecutor = (*Client)(nil)
)

type leveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}
func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}
func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}
func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// retryPolicy treats 429 as non-retryable so the rate limiter upstream stays
// the single pacing mechanism.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func NewClient(creds Credentials, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = cleanhttp.DefaultPooledTransport()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: logger.With("subsystem", "RedditHTTPClient")})
	retryClient.CheckRetry = retryPolicy
	httpClient := retryClient.StandardClient()
	httpClient.Timeout = 30 * time.Second

	return &Client{
		Client: httpClient,
		// 60 requests per minute, the documented free-tier budget
		Limiter:   rate.NewLimiter(rate.Every(time.Second), 5),
		Logger:    logger,
		UserAgent: "instamod",
		Host:      "https://oauth.reddit.com",
		AuthHost:  "https://www.reddit.com",
		creds:     creds,
	}
}

// Wire shapes. Listings arrive as a "Listing" thing whose children are typed
// things; the engine-facing types are flattened from these.

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
	After    string  `json:"after"`
}

type commentData struct {
	ID          string     `json:"id"`
	Author      string     `json:"author"`
	Subreddit   string     `json:"subreddit"`
	Score       int64      `json:"score"`
	Body        string     `json:"body"`
	CreatedUTC  float64    `json:"created_utc"`
	IsSubmitter bool       `json:"is_submitter"`
	LinkID      string     `json:"link_id"`
	BannedBy    stringOrNo `json:"banned_by"`
}

type postData struct {
	ID            string  `json:"id"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	Score         int64   `json:"score"`
	Title         string  `json:"title"`
	CreatedUTC    float64 `json:"created_utc"`
	LinkFlairText *string `json:"link_flair_text"`
}

type messageData struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type accountData struct {
	Name         string  `json:"name"`
	CreatedUTC   float64 `json:"created_utc"`
	CommentKarma int64   `json:"comment_karma"`
	LinkKarma    int64   `json:"link_karma"`
	IsSuspended  bool    `json:"is_suspended"`
}

// stringOrNo decodes fields the API serves as a string, a bool, or null.
type stringOrNo string

func (s *stringOrNo) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" || string(b) == "false" || string(b) == "true" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	*s = stringOrNo(str)
	return nil
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.creds.Username},
		"password":   {c.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AuthHost+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response: empty access_token")
	}
	c.token = body.AccessToken
	// refresh a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

// do runs one authenticated API call and decodes the JSON response into out
// (skipped when out is nil). Maps 404 to ErrNotFound.
func (c *Client) do(ctx context.Context, method, path string, params, form url.Values, out any) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	u := c.Host + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

const listingLimit = 100

func sinceParams(sinceID, fullnamePrefix string) url.Values {
	params := url.Values{"limit": {strconv.Itoa(listingLimit)}}
	if sinceID != "" {
		params.Set("before", fullnamePrefix+sinceID)
	}
	return params
}

func (c *Client) comments(ctx context.Context, path string, params url.Values) ([]CommentItem, error) {
	var lst thing
	if err := c.do(ctx, http.MethodGet, path, params, nil, &lst); err != nil {
		return nil, err
	}
	var data listingData
	if err := json.Unmarshal(lst.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	out := make([]CommentItem, 0, len(data.Children))
	for _, child := range data.Children {
		if child.Kind != "t1" {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			return nil, fmt.Errorf("decoding comment: %w", err)
		}
		out = append(out, CommentItem{
			ID:          cd.ID,
			Author:      cd.Author,
			Community:   cd.Subreddit,
			Score:       cd.Score,
			Body:        cd.Body,
			CreatedAt:   time.Unix(int64(cd.CreatedUTC), 0).UTC(),
			IsSubmitter: cd.IsSubmitter,
			ThreadID:    strings.TrimPrefix(cd.LinkID, "t3_"),
			RemovedBy:   string(cd.BannedBy),
		})
	}
	return out, nil
}

func (c *Client) posts(ctx context.Context, path string, params url.Values) ([]PostItem, error) {
	var lst thing
	if err := c.do(ctx, http.MethodGet, path, params, nil, &lst); err != nil {
		return nil, err
	}
	var data listingData
	if err := json.Unmarshal(lst.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	out := make([]PostItem, 0, len(data.Children))
	for _, child := range data.Children {
		if child.Kind != "t3" {
			continue
		}
		var pd postData
		if err := json.Unmarshal(child.Data, &pd); err != nil {
			return nil, fmt.Errorf("decoding post: %w", err)
		}
		flair := ""
		if pd.LinkFlairText != nil {
			flair = *pd.LinkFlairText
		}
		out = append(out, PostItem{
			ID:        pd.ID,
			Author:    pd.Author,
			Community: pd.Subreddit,
			Score:     pd.Score,
			Title:     pd.Title,
			CreatedAt: time.Unix(int64(pd.CreatedUTC), 0).UTC(),
			FlairText: flair,
		})
	}
	return out, nil
}

func (c *Client) CommunityComments(ctx context.Context, community, sinceID string) ([]CommentItem, error) {
	return c.comments(ctx, "/r/"+url.PathEscape(community)+"/comments", sinceParams(sinceID, "t1_"))
}

func (c *Client) CommunityPosts(ctx context.Context, community string, limit int) ([]PostItem, error) {
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	return c.posts(ctx, "/r/"+url.PathEscape(community)+"/new", params)
}

func (c *Client) UserComments(ctx context.Context, user, sinceID string) ([]CommentItem, error) {
	return c.comments(ctx, "/user/"+url.PathEscape(user)+"/comments", sinceParams(sinceID, "t1_"))
}

func (c *Client) UserPosts(ctx context.Context, user, sinceID string) ([]PostItem, error) {
	return c.posts(ctx, "/user/"+url.PathEscape(user)+"/submitted", sinceParams(sinceID, "t3_"))
}

func (c *Client) UserSummary(ctx context.Context, user string) (*UserSummary, error) {
	var t thing
	err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(user)+"/about", nil, nil, &t)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var ad accountData
	if err := json.Unmarshal(t.Data, &ad); err != nil {
		return nil, fmt.Errorf("decoding account: %w", err)
	}
	if ad.IsSuspended {
		return nil, nil
	}
	return &UserSummary{
		Name:         ad.Name,
		CreatedAt:    time.Unix(int64(ad.CreatedUTC), 0).UTC(),
		CommentKarma: ad.CommentKarma,
		PostKarma:    ad.LinkKarma,
	}, nil
}

func (c *Client) CommentExists(ctx context.Context, id string) (bool, error) {
	params := url.Values{"id": {"t1_" + id}}
	items, err := c.comments(ctx, "/api/info", params)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

func (c *Client) Inbox(ctx context.Context) ([]Message, error) {
	var lst thing
	if err := c.do(ctx, http.MethodGet, "/message/unread", url.Values{"limit": {strconv.Itoa(listingLimit)}}, nil, &lst); err != nil {
		return nil, err
	}
	var data listingData
	if err := json.Unmarshal(lst.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	out := make([]Message, 0, len(data.Children))
	for _, child := range data.Children {
		if child.Kind != "t4" {
			continue
		}
		var md messageData
		if err := json.Unmarshal(child.Data, &md); err != nil {
			return nil, fmt.Errorf("decoding message: %w", err)
		}
		out = append(out, Message{ID: md.ID, Author: md.Author, Subject: md.Subject, Body: md.Body})
	}
	return out, nil
}

func (c *Client) WikiPage(ctx context.Context, community, page string) (string, error) {
	var t thing
	if err := c.do(ctx, http.MethodGet, "/r/"+url.PathEscape(community)+"/wiki/"+url.PathEscape(page), nil, nil, &t); err != nil {
		return "", err
	}
	var wd struct {
		ContentMD string `json:"content_md"`
	}
	if err := json.Unmarshal(t.Data, &wd); err != nil {
		return "", fmt.Errorf("decoding wiki page: %w", err)
	}
	return wd.ContentMD, nil
}

func (c *Client) RemoveContent(ctx context.Context, id string, markAsSpam bool) error {
	form := url.Values{
		"id":   {"t1_" + id},
		"spam": {strconv.FormatBool(markAsSpam)},
	}
	return c.do(ctx, http.MethodPost, "/api/remove", nil, form, nil)
}

func (c *Client) NotifyUser(ctx context.Context, user, subject, body string) error {
	form := url.Values{
		"to":      {user},
		"subject": {subject},
		"text":    {body},
	}
	return c.do(ctx, http.MethodPost, "/api/compose", nil, form, nil)
}

func (c *Client) SetBadge(ctx context.Context, community, user, text, style string) error {
	form := url.Values{
		"name":      {user},
		"text":      {text},
		"css_class": {style},
	}
	return c.do(ctx, http.MethodPost, "/r/"+url.PathEscape(community)+"/api/flair", nil, form, nil)
}

func (c *Client) Reply(ctx context.Context, parentID, body string) (string, error) {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {parentID},
		"text":     {body},
	}
	var resp struct {
		JSON struct {
			Data struct {
				Things []thing `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/comment", nil, form, &resp); err != nil {
		return "", err
	}
	if len(resp.JSON.Data.Things) == 0 {
		return "", fmt.Errorf("reply to %s: no comment in response", parentID)
	}
	var cd commentData
	if err := json.Unmarshal(resp.JSON.Data.Things[0].Data, &cd); err != nil {
		return "", fmt.Errorf("decoding reply: %w", err)
	}
	return cd.ID, nil
}

func (c *Client) DistinguishSticky(ctx context.Context, id string) error {
	form := url.Values{
		"id":     {"t1_" + id},
		"how":    {"yes"},
		"sticky": {"true"},
	}
	return c.do(ctx, http.MethodPost, "/api/distinguish", nil, form, nil)
}

func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	form := url.Values{"id": {"t4_" + messageID}}
	return c.do(ctx, http.MethodPost, "/api/read_message", nil, form, nil)
}

func (c *Client) Me(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, nil, &me); err != nil {
		return "", err
	}
	return me.Name, nil
}

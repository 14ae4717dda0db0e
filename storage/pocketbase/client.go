// Package pocketbase talks to a PocketBase server over its admin REST API.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
)

const (
	perPage       = 200
	maxErrBodyLen = 2048
)

type (
	Options struct {
		BaseURL  string
		Identity string
		Password string
		Timeout  time.Duration // 0: no timeout
	}

	// Client implements milestone.Backend. Every Authenticate call fetches a new admin token.
	Client struct {
		opts    Options
		http    *http.Client
		authLog *AuthLog
	}

	session struct {
		c     *Client
		token string
	}

	authResponse struct {
		Token string `json:"token"`
	}

	apiError struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
)

var (
	_ milestone.Backend = (*Client)(nil)
	_ milestone.Session = (*session)(nil)
)

func NewClient(opts Options, authLog *AuthLog) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(opts.BaseURL, "BaseURL"),
		vala.IsNotNil(authLog, "authLog"),
	).Check(); err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, errors.Wrap(err, "parsing backend url")
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		authLog: authLog,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.opts.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a JSON request and decodes a JSON response into out (if not nil).
// 404 becomes milestone.ErrNotFound; any other non-2xx becomes a *milestone.BackendError.
func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		return milestone.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrBodyLen))
		return milestone.NewBackendError(resp.StatusCode, errorBody(raw))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

// errorBody prefers PocketBase's {"message", "data"} error shape, falling back to the raw text.
func errorBody(raw []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
		if len(apiErr.Data) == 0 {
			return apiErr.Message
		}
		data, _ := json.Marshal(apiErr.Data)
		return fmt.Sprintf("%s %s", apiErr.Message, data)
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "", http.MethodGet, "/api/health", nil, nil, nil)
}

func (c *Client) Authenticate(ctx context.Context) (milestone.Session, error) {
	if c.opts.Identity == "" || c.opts.Password == "" {
		c.authLog.failed("admin identity or password not configured", nil)
		return nil, errors.Wrap(milestone.ErrAuthentication, "admin identity or password not configured")
	}

	creds := map[string]string{"identity": c.opts.Identity, "password": c.opts.Password}
	var res authResponse
	if err := c.do(ctx, "", http.MethodPost, "/api/admins/auth-with-password", nil, creds, &res); err != nil {
		c.authLog.failed("authentication request failed", err)
		return nil, errors.Wrap(milestone.ErrAuthentication, err.Error())
	}
	if res.Token == "" {
		c.authLog.failed("no token in authentication response", nil)
		return nil, errors.Wrap(milestone.ErrAuthentication, "no token in response")
	}
	if err := checkTokenExpiry(res.Token, time.Now()); err != nil {
		c.authLog.failed("unusable admin token", err)
		return nil, errors.Wrap(milestone.ErrAuthentication, err.Error())
	}

	c.authLog.succeeded()
	return &session{c: c, token: res.Token}, nil
}

// checkTokenExpiry reads the exp claim without verifying the signature (only the backend holds the key).
func checkTokenExpiry(token string, now time.Time) error {
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		// opaque tokens are accepted as is
		return nil
	}
	if claims.ExpiresAt != 0 && !claims.VerifyExpiresAt(now.Unix(), true) {
		return errors.Errorf("token expired at %s", time.Unix(claims.ExpiresAt, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

// WaitHealthy polls the health endpoint up to `retries` times, `delay` apart.
func WaitHealthy(ctx context.Context, backend milestone.Backend, retries int, delay time.Duration, logger core.Logger) error {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for i := 1; i <= retries; i++ {
		if lastErr = backend.Health(ctx); lastErr == nil {
			return nil
		}
		logger.Warn(fmt.Sprintf("backend not healthy (attempt %d/%d): %v", i, retries, lastErr))
		if i == retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return errors.Wrapf(lastErr, "backend not healthy after %d attempts", retries)
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func (s *session) ListCollections(ctx context.Context) ([]milestone.Collection, error) {
	var cols []milestone.Collection
	for page := 1; ; page++ {
		var res struct {
			Page       int                `json:"page"`
			TotalPages int                `json:"totalPages"`
			Items      []collectionSchema `json:"items"`
		}
		q := url.Values{"page": {fmt.Sprint(page)}, "perPage": {fmt.Sprint(perPage)}}
		if err := s.c.do(ctx, s.token, http.MethodGet, "/api/collections", q, nil, &res); err != nil {
			return nil, err
		}
		for _, item := range res.Items {
			cols = append(cols, item.toCollection())
		}
		if page >= res.TotalPages {
			return cols, nil
		}
	}
}

func (s *session) CreateCollection(ctx context.Context, c milestone.Collection) (milestone.Collection, error) {
	var res collectionSchema
	if err := s.c.do(ctx, s.token, http.MethodPost, "/api/collections", nil, newCollectionSchema(c, nil), &res); err != nil {
		return milestone.Collection{}, err
	}
	return res.toCollection(), nil
}

// UpdateCollection replaces the collection schema. Ids of existing fields are carried over
// so that their stored values survive the patch.
func (s *session) UpdateCollection(ctx context.Context, id string, c milestone.Collection) (milestone.Collection, error) {
	var current collectionSchema
	path := "/api/collections/" + url.PathEscape(id)
	if err := s.c.do(ctx, s.token, http.MethodGet, path, nil, nil, &current); err != nil {
		return milestone.Collection{}, err
	}
	ids := make(map[string]string, len(current.Schema))
	for _, f := range current.Schema {
		ids[f.Name] = f.ID
	}

	var res collectionSchema
	if err := s.c.do(ctx, s.token, http.MethodPatch, path, nil, newCollectionSchema(c, ids), &res); err != nil {
		return milestone.Collection{}, err
	}
	return res.toCollection(), nil
}

func (s *session) CreateRecord(ctx context.Context, collection string, data milestone.Record) (milestone.Record, error) {
	var rec milestone.Record
	if err := s.c.do(ctx, s.token, http.MethodPost, recordsPath(collection), nil, data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *session) GetRecord(ctx context.Context, collection, id string) (milestone.Record, error) {
	var rec milestone.Record
	if err := s.c.do(ctx, s.token, http.MethodGet, recordsPath(collection)+"/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *session) UpdateRecord(ctx context.Context, collection, id string, data milestone.Record) (milestone.Record, error) {
	var rec milestone.Record
	if err := s.c.do(ctx, s.token, http.MethodPatch, recordsPath(collection)+"/"+url.PathEscape(id), nil, data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *session) DeleteRecord(ctx context.Context, collection, id string) error {
	return s.c.do(ctx, s.token, http.MethodDelete, recordsPath(collection)+"/"+url.PathEscape(id), nil, nil, nil)
}

// ListRecords pages through the whole collection.
func (s *session) ListRecords(ctx context.Context, collection string) ([]milestone.Record, error) {
	recs := make([]milestone.Record, 0)
	for page := 1; ; page++ {
		var res struct {
			Page       int                `json:"page"`
			TotalPages int                `json:"totalPages"`
			Items      []milestone.Record `json:"items"`
		}
		q := url.Values{"page": {fmt.Sprint(page)}, "perPage": {fmt.Sprint(perPage)}, "sort": {"created"}}
		if err := s.c.do(ctx, s.token, http.MethodGet, recordsPath(collection), q, nil, &res); err != nil {
			return nil, err
		}
		recs = append(recs, res.Items...)
		if page >= res.TotalPages {
			return recs, nil
		}
	}
}

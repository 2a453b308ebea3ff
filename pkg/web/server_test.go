package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devraulu/alisopan/pkg/catalog"
	"github.com/devraulu/alisopan/pkg/config"
	"github.com/devraulu/alisopan/pkg/search"
)

type staticSource []search.Record

func (s staticSource) Load(ctx context.Context) ([]search.Record, error) { return s, nil }
func (s staticSource) Close() error { return nil }

var tokenPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func scenario() []search.Record {
	return []search.Record{
		{Name: "我推的孩子 S1", URL: "https://ex.com/a", Timestamp: "2024-01-01 10:00"},
		{Name: "我推的孩子 S2", URL: "https://ex.com/b", Timestamp: "2024-06-01 10:00"},
		{Name: "Other show", URL: "bad url", Timestamp: ""},
	}
}

func newTestHandler(t *testing.T, records []search.Record) http.Handler {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Timezone = "UTC"
	cfg.Security.CSRFKey = "test-key"

	cat := catalog.New(staticSource(records))
	require.NoError(t, cat.Reload(context.Background()))

	srv, err := New(cfg, cat)
	require.NoError(t, err)
	return srv.Handler()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// session performs a GET and returns the issued session cookie and form token.
func session(t *testing.T, h http.Handler) (*http.Cookie, string) {
	t.Helper()
	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	m := tokenPattern.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2)
	return cookies[0], m[1]
}

func postSearch(cookie *http.Cookie, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestIndexWithoutQuery(t *testing.T) {
	h := newTestHandler(t, scenario())
	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "请输入关键词开始搜索")
	assert.NotContains(t, body, `class="result-card"`)
	assert.NotContains(t, body, "没有找到")
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestHandler(t, scenario())
	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q=x", nil))

	for k, v := range securityHeaders {
		assert.Equal(t, v, rec.Header().Get(k), k)
	}
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestSessionCookie(t *testing.T) {
	h := newTestHandler(t, scenario())
	cookie, token := session(t, h)

	assert.Equal(t, "alisopan_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := do(h, req)
	assert.Empty(t, rec.Result().Cookies(), "existing session must be reused")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "alisopan_session", Value: "forged"})
	rec = do(h, req)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestGetSearchOrdersNewestFirst(t *testing.T) {
	h := newTestHandler(t, scenario())
	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q="+url.QueryEscape("我推的孩子"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	s2 := strings.Index(body, "我推的孩子 S2")
	s1 := strings.Index(body, "我推的孩子 S1")
	require.NotEqual(t, -1, s1)
	require.NotEqual(t, -1, s2)
	assert.Less(t, s2, s1)

	assert.Contains(t, body, `href="https://ex.com/b"`)
	assert.Contains(t, body, "2024-06-01 10:00")
	assert.NotContains(t, body, "Other show")
	assert.NotContains(t, body, `class="pagination"`)
	assert.NotContains(t, body, "请输入关键词开始搜索")
}

func TestInvalidURLIsNotLinked(t *testing.T) {
	h := newTestHandler(t, []search.Record{{Name: "Broken", URL: "not a url"}})
	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q=broken", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "无效URL")
	assert.NotContains(t, body, "href=\"not a url\"")
	assert.NotContains(t, body, `class="result-time"`)
}

func TestNoResults(t *testing.T) {
	h := newTestHandler(t, scenario())
	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q=nothing", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "没有找到「nothing」相关结果")
}

func TestOutputIsEscaped(t *testing.T) {
	h := newTestHandler(t, []search.Record{
		{Name: `<script>alert("x")</script> show`, URL: `https://ex.com/"><script>`},
	})
	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q=show", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `class="result-card"`)
	assert.NotContains(t, body, `<script>alert`)
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestQueryIsSanitized(t *testing.T) {
	h := newTestHandler(t, scenario())
	q := url.QueryEscape(`<b>Other</b>`)
	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q="+q, nil))

	body := rec.Body.String()
	assert.Contains(t, body, "Other show")
	assert.NotContains(t, body, "<b>Other</b>")
}

func TestPostRequiresToken(t *testing.T) {
	h := newTestHandler(t, scenario())
	cookie, _ := session(t, h)

	rec := do(h, postSearch(cookie, url.Values{"q": {"我推的孩子"}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF验证失败")
	assert.NotContains(t, rec.Body.String(), `class="result-card"`)

	rec = do(h, postSearch(cookie, url.Values{"q": {"我推的孩子"}, "csrf_token": {"bogus"}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPostTokenBoundToSession(t *testing.T) {
	h := newTestHandler(t, scenario())
	_, token := session(t, h)
	other, _ := session(t, h)

	rec := do(h, postSearch(other, url.Values{"q": {"我推的孩子"}, "csrf_token": {token}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, postSearch(nil, url.Values{"q": {"我推的孩子"}, "csrf_token": {token}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPostWithValidToken(t *testing.T) {
	h := newTestHandler(t, scenario())
	cookie, token := session(t, h)

	rec := do(h, postSearch(cookie, url.Values{"q": {"  我推的孩子  "}, "csrf_token": {token}}))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "我推的孩子 S2")
	assert.Contains(t, body, `value="我推的孩子"`)
}

func TestPostWithoutQueryFallsBackToGet(t *testing.T) {
	h := newTestHandler(t, scenario())

	req := postSearch(nil, url.Values{"other": {"1"}})
	req.URL.RawQuery = "q=other"
	rec := do(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Other show")
}

func fortyFive() []search.Record {
	records := make([]search.Record, 45)
	for i := range records {
		records[i] = search.Record{
			Name: fmt.Sprintf("Episode %02d", i),
			URL:  fmt.Sprintf("https://ex.com/%d", i),
		}
	}
	return records
}

func TestPagination(t *testing.T) {
	h := newTestHandler(t, fortyFive())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q=episode&page=3", nil))
	body := rec.Body.String()
	assert.Equal(t, 5, strings.Count(body, `class="result-card"`))
	assert.Contains(t, body, "第 3 页 / 共 3 页")
	assert.Contains(t, body, "上一页")
	assert.NotContains(t, body, "下一页")
	assert.Contains(t, body, "Episode 40")

	rec = do(h, httptest.NewRequest(http.MethodGet, "/?q=episode&page=abc", nil))
	body = rec.Body.String()
	assert.Equal(t, 20, strings.Count(body, `class="result-card"`))
	assert.Contains(t, body, "第 1 页 / 共 3 页")
	assert.NotContains(t, body, "上一页")
	assert.Contains(t, body, "下一页")
	assert.Contains(t, body, `name="page" value="2"`)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/?q=episode&page=9999", nil))
	assert.Contains(t, rec.Body.String(), "第 3 页 / 共 3 页")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, scenario())
	rec := do(h, httptest.NewRequest(http.MethodPut, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD, POST", rec.Header().Get("Allow"))
}

func TestUnknownPath(t *testing.T) {
	h := newTestHandler(t, scenario())
	rec := do(h, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, scenario())
	rec := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Dataset-Records"))
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestEmptyDatasetStillServes(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := do(h, httptest.NewRequest(http.MethodGet, "/?q=anything", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "没有找到「anything」相关结果")
}

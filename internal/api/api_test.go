package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/riocapital/blog-api/internal/api"
	"github.com/riocapital/blog-api/internal/config"
	"github.com/riocapital/blog-api/internal/mocks"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/ratelimit"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

type testServer struct {
	router *gin.Engine
	store  *mocks.Store
	repos  *repository.Repositories
	cfg    *config.Config

	category *models.Category
	article  *models.Article
}

type failingHealth struct{}

func (failingHealth) HealthCheck(ctx context.Context) error { return errors.New("connection refused") }

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080", AllowedOrigins: "http://localhost:5173"},
		Session:  config.SessionConfig{Name: "riocapital_session", Secret: "test-secret-test-secret-test-secret", MaxAge: 3600},
		Payments: config.PaymentsConfig{DefaultCurrency: "EUR"},
		Upload: config.UploadConfig{
			Dir:           t.TempDir(),
			PublicPrefix:  "/static/uploads",
			MaxUploadSize: 1 << 20,
			WebPQuality:   80,
			MaxDimension:  128,
		},
	}
}

func setupTestServer(t *testing.T, cfg *config.Config, opts api.Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := mocks.NewStore()
	repos := store.Repositories()
	services := service.NewServices(repos, cfg, service.Dependencies{}, zerolog.Nop())
	router := api.NewRouter(services, cfg, opts, zerolog.Nop())

	ts := &testServer{router: router, store: store, repos: repos, cfg: cfg}
	author := ts.seedUser(t, "writer", "collaborator")
	ts.category = store.AddCategory(models.Category{Name: "Markets", Slug: "markets", Color: "#007BFF", Active: true})
	ts.article = store.AddArticle(models.Article{
		Title: "Rates", Slug: "rates", Content: "Some **markdown**", AuthorID: author.ID,
		CategoryID: ts.category.ID, Published: true,
	})
	return ts
}

func (ts *testServer) seedUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return ts.store.AddUser(models.User{
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     string(hash),
		Role:             role,
		ProfileCompleted: true,
		Active:           true,
	})
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) upload(t *testing.T, path, field, filename string, content []byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// login signs in as username and returns the session cookies
func (ts *testServer) login(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": username, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: uint8(y), B: uint8(x), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})

	w := ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint_Unhealthy(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{Health: failingHealth{}})

	w := ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	ts.do(t, http.MethodGet, "/api/v1/categories", nil, nil)

	w := ts.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blog_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/articles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/articles", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRegisterLoginSession(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})

	w := ts.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "newreader", "email": "new@example.com", "password": testPassword, "role": "admin",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "reader", user["role"])
	assert.NotContains(t, w.Body.String(), "password")

	w = ts.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "other", "email": "NEW@example.com", "password": testPassword,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "authentication required", body["message"])

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "new@example.com", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookies := ts.login(t, "newreader")
	w = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "newreader", me["username"])
}

func TestSessionOfDisabledAccountIsRejected(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	u := ts.seedUser(t, "soon-gone", "reader")
	cookies := ts.login(t, "soon-gone")

	_, err := ts.repos.User.SetActive(context.Background(), u.ID, false)
	require.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGuards(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	ts.seedUser(t, "reader", "reader")
	ts.seedUser(t, "boss", "admin")
	article := gin.H{"title": "New", "content": "Body", "category_id": ts.category.ID, "published": true}

	w := ts.do(t, http.MethodPost, "/api/v1/articles", article, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/articles", article, ts.login(t, "reader"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient permissions", decode(t, w)["message"])

	w = ts.do(t, http.MethodPost, "/api/v1/articles", article, ts.login(t, "writer"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "new", decode(t, w)["article"].(map[string]interface{})["slug"])

	w = ts.do(t, http.MethodGet, "/api/v1/comments/moderate", nil, ts.login(t, "writer"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/comments/moderate", nil, ts.login(t, "boss"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestArticleEndpoints(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})

	w := ts.do(t, http.MethodGet, "/api/v1/articles?per_page=500", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["articles"], 1)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(100), pagination["per_page"])
	assert.Equal(t, float64(1), pagination["total"])

	w = ts.do(t, http.MethodGet, "/api/v1/articles/rates", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	a := decode(t, w)["article"].(map[string]interface{})
	assert.Equal(t, float64(1), a["views_count"])
	assert.Contains(t, a["content_html"], "<strong>markdown</strong>")

	w = ts.do(t, http.MethodGet, "/api/v1/articles/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/articles/abc", gin.H{}, ts.login(t, "writer"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikeToggleOverHTTP(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	ts.seedUser(t, "fan", "reader")
	cookies := ts.login(t, "fan")
	path := "/api/v1/articles/" + itoa(ts.article.ID) + "/like"

	w := ts.do(t, http.MethodPost, path, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["likes_count"])

	w = ts.do(t, http.MethodPost, path, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["liked"])
	assert.Equal(t, float64(0), body["likes_count"])

	w = ts.do(t, http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShareIsPublic(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	path := "/api/v1/articles/" + itoa(ts.article.ID) + "/share"

	w := ts.do(t, http.MethodPost, path, gin.H{"platform": "telegram"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, path, gin.H{"platform": "fax"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, ts.store.ShareRows(), 1)
}

func TestCommentModerationFlow(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	ts.seedUser(t, "reader", "reader")
	ts.seedUser(t, "boss", "admin")
	readerCookies := ts.login(t, "reader")
	adminCookies := ts.login(t, "boss")

	var ids []float64
	for _, content := range []string{"first", "second"} {
		w := ts.do(t, http.MethodPost, "/api/v1/comments", gin.H{"article_id": ts.article.ID, "content": content}, readerCookies)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		c := decode(t, w)["comment"].(map[string]interface{})
		assert.Equal(t, "pending", c["status"])
		ids = append(ids, c["id"].(float64))
	}

	listPath := "/api/v1/comments?article_id=" + itoa(ts.article.ID)
	w := ts.do(t, http.MethodGet, listPath, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["comments"])

	w = ts.do(t, http.MethodPatch, "/api/v1/comments/moderate-bulk", gin.H{
		"comment_ids": []float64{ids[0], ids[1], 424242},
		"action":      "approve",
	}, adminCookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(3), body["requested"])
	assert.Equal(t, float64(2), body["affected"])
	assert.Equal(t, "2 comments approved", body["message"])

	w = ts.do(t, http.MethodGet, listPath, nil, nil)
	assert.Len(t, decode(t, w)["comments"], 2)

	w = ts.do(t, http.MethodPatch, "/api/v1/comments/"+itoa(int64(ids[0]))+"/moderate", gin.H{"action": "reject", "reason": "off topic"}, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "off topic", decode(t, w)["comment"].(map[string]interface{})["moderation_reason"])

	w = ts.do(t, http.MethodGet, "/api/v1/comments", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDonationEndpoints(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	ts.seedUser(t, "boss", "admin")

	w := ts.do(t, http.MethodPost, "/api/v1/donations", gin.H{"donor_name": "Ana", "donor_email": "ana@example.com", "amount": 15, "anonymous": true}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decode(t, w)["donation"].(map[string]interface{})
	assert.Equal(t, "completed", d["status"])
	assert.Nil(t, d["donor_name"])
	assert.True(t, strings.HasPrefix(d["transaction_id"].(string), "TXN_"))

	w = ts.do(t, http.MethodPost, "/api/v1/donations", gin.H{"amount": -1}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/donations/checkout", gin.H{"amount": 5}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	admin := ts.login(t, "boss")
	w = ts.do(t, http.MethodGet, "/api/v1/donations/export?format=csv", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=donations_")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Donor Name,Email,Amount,Currency,Message,Anonymous,Payment Method,Transaction ID,Status,Created At", lines[0])
	assert.NotContains(t, lines[1], "ana@example.com")

	w = ts.do(t, http.MethodGet, "/api/v1/donations/export?format=json", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/donations/export", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/donations/"+itoa(int64(d["id"].(float64)))+"/refund", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "refunded", decode(t, w)["donation"].(map[string]interface{})["status"])
}

func TestNewsletterEndpoints(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	ts.seedUser(t, "boss", "admin")

	w := ts.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", gin.H{"email": "Reader@Example.com"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", gin.H{"email": "reader@example.com"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Email already subscribed", decode(t, w)["message"])

	w = ts.do(t, http.MethodPost, "/api/v1/newsletter/unsubscribe", gin.H{"email": "missing@example.com"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	csvData := []byte("email,name\nreader@example.com,A\nfresh@example.com,B\nbroken,C\n")
	w = ts.upload(t, "/api/v1/newsletter/import", "file", "subs.csv", csvData, ts.login(t, "boss"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(1), body["imported"])
	assert.Equal(t, float64(2), body["skipped"])
	assert.Len(t, body["errors"], 1)

	w = ts.upload(t, "/api/v1/newsletter/import", "file", "subs.xlsx", csvData, ts.login(t, "boss"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitedSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := testConfig(t)
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Window: time.Minute, SubscribePerWindow: 1}
	limiter := ratelimit.New(rdb, cfg.RateLimit.Window, ratelimit.FailOpen, zerolog.Nop())
	ts := setupTestServer(t, cfg, api.Options{Limiter: limiter})

	w := ts.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", gin.H{"email": "one@example.com"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", gin.H{"email": "two@example.com"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	// redis outage fails open
	mr.Close()
	w = ts.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", gin.H{"email": "three@example.com"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	ts.repos.Category.(*mocks.MockCategoryRepository).Err = errors.New("pq: password authentication failed for user blog")

	w := ts.do(t, http.MethodGet, "/api/v1/categories", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCategoryEndpoints(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	writer := ts.login(t, "writer")

	w := ts.do(t, http.MethodGet, "/api/v1/categories/markets", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/categories", gin.H{"name": "MARKETS"}, writer)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/categories/"+itoa(ts.category.ID), nil, writer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImage(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})
	writer := ts.login(t, "writer")

	w := ts.upload(t, "/api/v1/upload/image", "image", "chart.png", pngImage(t, 300, 150), writer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	url := body["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/static/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))
	assert.Equal(t, float64(128), body["width"])

	w = ts.do(t, http.MethodGet, url, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.upload(t, "/api/v1/upload/image", "image", "notes.txt", []byte("hello"), writer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// request body is capped before multipart parsing
	oversized := append(pngImage(t, 4, 4), bytes.Repeat([]byte{0}, 2<<20)...)
	w = ts.upload(t, "/api/v1/upload/image", "image", "huge.png", oversized, writer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContact(t *testing.T) {
	ts := setupTestServer(t, testConfig(t), api.Options{})

	w := ts.do(t, http.MethodPost, "/api/v1/contact", gin.H{"name": "Ana", "email": "ana@example.com", "subject": "Hi", "message": "Hello"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/contact", gin.H{"name": "Ana", "email": "nope", "subject": "Hi", "message": "Hello"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

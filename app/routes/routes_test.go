package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"inkwell/app/images"
	"inkwell/app/links"
	"inkwell/app/models"
	"inkwell/app/render"
	"inkwell/app/repositories"
	"inkwell/app/services"
	"inkwell/app/storage"
)

const svgDoc = `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><rect width="4" height="4"/></svg>`

func newTestHandler(t *testing.T, auth Auth) http.Handler {
	t.Helper()
	store := storage.NewMemory()
	repo := repositories.NewStorePostRepository(store, nil)
	index := repositories.NewStoreLabelIndex(store, nil)
	imgs := images.NewService(store, nil)
	svc := services.NewPostService(repo, index, links.NewChecker(store), render.New(), imgs, nil)
	return Setup(svc, imgs, auth, nil)
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func samplePostBody(title string) map[string]any {
	return map[string]any{
		"date":         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"title":        title,
		"content_type": "markdown",
		"content":      "# " + title,
		"labels":       []string{"go"},
		"published":    true,
	}
}

func TestPostRoutes(t *testing.T) {
	handler := newTestHandler(t, Auth{})

	t.Run("readyz", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/readyz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("save", func(t *testing.T) {
		rec := doJSON(t, handler, "PUT", "/api/posts/my-first-post", samplePostBody("Hello"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result services.SaveResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Contains(t, result.HTML, "<h1")
		assert.Empty(t, result.BrokenLinks)
	})

	t.Run("show", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/api/posts/my-first-post", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp struct {
			Post *models.Post `json:"post"`
			HTML string       `json:"html"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "my-first-post", resp.Post.Slug)
		assert.Contains(t, resp.HTML, "Hello")
	})

	t.Run("show absent", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/api/posts/no-such-post", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("index", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/api/posts", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Posts []models.PostSummary `json:"posts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Posts, 1)
		assert.Equal(t, "my-first-post", resp.Posts[0].Slug)
	})

	t.Run("by label", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/api/labels/go", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Slugs []string `json:"slugs"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"my-first-post"}, resp.Slugs)
	})

	t.Run("check with broken link", func(t *testing.T) {
		body := samplePostBody("Draft")
		body["image_ids"] = []string{"no-such-image"}
		rec := doJSON(t, handler, "POST", "/api/posts/draft-post/check", body)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp struct {
			BrokenLinks []links.BrokenLink `json:"broken_links"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.BrokenLinks, 1)
		assert.Equal(t, "no-such-image", resp.BrokenLinks[0].Reference)

		// Dry run: nothing was written.
		rec = doJSON(t, handler, "GET", "/api/posts/draft-post", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/posts/my-first-post", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		body := samplePostBody("")
		rec := doJSON(t, handler, "PUT", "/api/posts/my-first-post", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("publish cycle", func(t *testing.T) {
		rec := doJSON(t, handler, "POST", "/api/posts/my-first-post/unpublish", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = doJSON(t, handler, "POST", "/api/posts/my-first-post/publish", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, handler, "DELETE", "/api/posts/my-first-post", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = doJSON(t, handler, "DELETE", "/api/posts/my-first-post", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestImageRoutes(t *testing.T) {
	handler := newTestHandler(t, Auth{})

	t.Run("create", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/images?id=logo", bytes.NewReader([]byte(svgDoc)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "logo", resp["id"])
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/images?id=logo", bytes.NewReader([]byte(svgDoc)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("show variant", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/images/logo/original", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
		assert.Equal(t, svgDoc, rec.Body.String())
	})

	t.Run("unknown variant", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/images/logo/500", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/api/images", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string][]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"logo"}, resp["ids"])
	})

	t.Run("empty upload", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/images", bytes.NewReader(nil))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, handler, "DELETE", "/api/images/logo", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = doJSON(t, handler, "GET", "/images/logo/original", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBasicAuthGuardsWrites(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	handler := newTestHandler(t, Auth{User: "editor", PasswordHash: string(hash)})

	save := func(user, pass string) *httptest.ResponseRecorder {
		data, err := json.Marshal(samplePostBody("Hello"))
		require.NoError(t, err)
		req := httptest.NewRequest("PUT", "/api/posts/my-first-post", bytes.NewReader(data))
		if user != "" {
			req.SetBasicAuth(user, pass)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("no credentials", func(t *testing.T) {
		rec := save("", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, save("editor", "wrong").Code)
	})

	t.Run("wrong user", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, save("intruder", "sesame").Code)
	})

	t.Run("valid credentials", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, save("editor", "sesame").Code)
	})

	t.Run("reads stay public", func(t *testing.T) {
		rec := doJSON(t, handler, "GET", "/api/posts", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

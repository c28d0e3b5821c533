package upload

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// setupRouter mounts the upload routes behind a stand-in for JWTAuth that
// reads the user from X-Test-User-ID.
func setupRouter(t *testing.T, env *serviceEnv) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(env.service)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User-ID"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			require.NoError(t, err)
			c.Set("user_id", id)
		}
		c.Next()
	})
	RegisterRoutes(api, h)
	RegisterAdminRoutes(api.Group("/admin"), h)
	return r
}

func doUpload(t *testing.T, r *gin.Engine, path, userID string, values map[string]string, files ...testFile) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, contentType := buildMultipart(t, "file", files, values)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if userID != "" {
		req.Header.Set("X-Test-User-ID", userID)
	}
	return serve(t, r, req)
}

func serve(t *testing.T, r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHandlerUpload(t *testing.T) {
	env := setupService(t, 0, Options{})
	r := setupRouter(t, env)

	w, resp := doUpload(t, r, "/api/v1/uploads", "42", map[string]string{"timestamp": strconv.FormatInt(fixedTS.Unix(), 10)},
		testFile{name: "photo.png", content: pngBytes},
		testFile{name: "notes.txt", content: []byte("hello")},
	)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	var data struct {
		Files []FileResult `json:"files"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Files, 2)
	assert.True(t, data.Files[0].OK)
	require.NotNil(t, data.Files[0].Upload)
	assert.Contains(t, data.Files[0].Upload.FileURL, "/static/uploads/2024/01/02/")
	assert.Equal(t, MsgUnsupportedType, data.Files[1].Message)
	assert.NotContains(t, w.Body.String(), env.base, "server paths are not exposed")
}

func TestHandlerUpload_Rejections(t *testing.T) {
	env := setupService(t, 0, Options{})
	r := setupRouter(t, env)

	t.Run("unauthenticated", func(t *testing.T) {
		w, resp := doUpload(t, r, "/api/v1/uploads", "", nil, testFile{name: "a.png", content: pngBytes})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	})

	t.Run("no files", func(t *testing.T) {
		w, resp := doUpload(t, r, "/api/v1/uploads", "1", map[string]string{"note": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "NO_FILE", resp.Error.Code)
	})

	t.Run("all rejected", func(t *testing.T) {
		w, resp := doUpload(t, r, "/api/v1/uploads", "1", nil, testFile{name: "run.exe", content: []byte("MZ")})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "UPLOAD_REJECTED", resp.Error.Code)
		assert.Equal(t, MsgUnsupportedType, resp.Error.Message)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		w, resp := doUpload(t, r, "/api/v1/uploads", "1", map[string]string{"timestamp": "yesterday"}, testFile{name: "a.png", content: pngBytes})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_TIMESTAMP", resp.Error.Code)
	})
}

func TestHandlerUpload_TooLarge(t *testing.T) {
	env := setupService(t, 4, Options{})
	r := setupRouter(t, env)

	w, resp := doUpload(t, r, "/api/v1/uploads", "1", nil, testFile{name: "a.png", content: pngBytes})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", resp.Error.Code)
}

func TestHandlerValidate(t *testing.T) {
	env := setupService(t, 0, Options{})
	r := setupRouter(t, env)

	w, resp := doUpload(t, r, "/api/v1/uploads/validate", "1", nil, testFile{name: "a.JPG"}, testFile{name: "b.pdf"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"2 file(s) validated","count":2}`, string(resp.Data))

	w, resp = doUpload(t, r, "/api/v1/uploads/validate", "1", nil, testFile{name: "a.jpg"}, testFile{name: "b.svg"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `"svg"`)
}

func TestHandlerListGetDelete(t *testing.T) {
	env := setupService(t, 0, Options{})
	r := setupRouter(t, env)

	w, resp := doUpload(t, r, "/api/v1/uploads", "42", nil, testFile{name: "photo.png", content: pngBytes})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Files []FileResult `json:"files"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotNil(t, data.Files[0].Upload)
	id := data.Files[0].Upload.ID

	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads", nil)
	req.Header.Set("X-Test-User-ID", "42")
	w, resp = serve(t, r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var list []Upload
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/uploads/"+id, nil)
	req.Header.Set("X-Test-User-ID", "42")
	w, _ = serve(t, r, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/uploads/"+id, nil)
	req.Header.Set("X-Test-User-ID", "7")
	w, resp = serve(t, r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/uploads/"+id, nil)
	req.Header.Set("X-Test-User-ID", "7")
	w, resp = serve(t, r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/uploads/"+id, nil)
	req.Header.Set("X-Test-User-ID", "42")
	w, resp = serve(t, r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"File removed","file_removed":true}`, string(resp.Data))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/uploads/"+id, nil)
	req.Header.Set("X-Test-User-ID", "42")
	w, resp = serve(t, r, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestHandlerRemoveStored(t *testing.T) {
	env := setupService(t, 0, Options{})
	r := setupRouter(t, env)
	ts := strconv.FormatInt(fixedTS.Unix(), 10)

	w, resp := doUpload(t, r, "/api/v1/uploads", "42", map[string]string{"timestamp": ts}, testFile{name: "photo.png", content: pngBytes})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Files []FileResult `json:"files"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotNil(t, data.Files[0].Upload)
	name := data.Files[0].Upload.StoredName

	w, resp = serve(t, r, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/uploads/files?name="+name, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TIMESTAMP", resp.Error.Code)

	w, _ = serve(t, r, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/uploads/files?name="+name+"&timestamp="+ts, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = serve(t, r, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/uploads/files?name="+name+"&timestamp="+ts, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgRemoveNotFound, resp.Error.Message)
}

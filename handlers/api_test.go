package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sathvikreddy369/sign-language/config"
	"github.com/sathvikreddy369/sign-language/handlers"
	"github.com/sathvikreddy369/sign-language/inference"
	"github.com/sathvikreddy369/sign-language/labels"
	"github.com/sathvikreddy369/sign-language/models"
	"github.com/sathvikreddy369/sign-language/routes"
	"github.com/sathvikreddy369/sign-language/services"
)

type stubEngine struct {
	probs []float64
	err   error
}

func (s *stubEngine) Predict(ctx context.Context, image []byte) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(s.probs))
	copy(out, s.probs)
	return out, nil
}

func engineFor(label string, confidence float64) *stubEngine {
	probs := make([]float64, labels.Count)
	rest := (1 - confidence) / float64(labels.Count-1)
	for i := range probs {
		probs[i] = rest
	}
	for i, name := range labels.Catalog {
		if name == label {
			probs[i] = confidence
			break
		}
	}
	return &stubEngine{probs: probs}
}

func setupAPI(t *testing.T, engine inference.Engine) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(&models.User{}, &models.PredictionLog{}))

	cfg := &config.Config{JWTSecret: "test-secret"}
	sm := services.NewServiceManager(database, engine, []byte(cfg.JWTSecret))
	hm := handlers.NewHandlerManager(sm)
	return routes.SetupRoutes(hm, database, cfg), database
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func signupAndLogin(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "secret123"}
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := resp["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func testImage() string {
	return base64.StdEncoding.EncodeToString([]byte("fake-jpeg-bytes"))
}

func TestHealth(t *testing.T) {
	r, _ := setupAPI(t, engineFor("A", 0.9))
	w, resp := doJSON(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["model_loaded"])

	r, _ = setupAPI(t, nil)
	w, resp = doJSON(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["model_loaded"])
}

func TestLabelsEndpoint(t *testing.T) {
	r, _ := setupAPI(t, nil)
	w, resp := doJSON(t, r, http.MethodGet, "/api/labels", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got, ok := resp["labels"].([]interface{})
	require.True(t, ok)
	assert.Len(t, got, 29)
	assert.Equal(t, "A", got[0])
	assert.Equal(t, "space", got[28])
}

func TestPredictEndpoint(t *testing.T) {
	r, db := setupAPI(t, engineFor("B", 0.93))

	w, resp := doJSON(t, r, http.MethodPost, "/api/predict", "", map[string]string{"image": testImage()})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "B", resp["prediction"])
	assert.InDelta(t, 0.93, resp["confidence"].(float64), 1e-9)
	top, ok := resp["top_predictions"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, top, 5)
	assert.NotNil(t, resp["latency_ms"])

	var count int64
	require.NoError(t, db.Model(&models.PredictionLog{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPredictEndpointErrors(t *testing.T) {
	r, _ := setupAPI(t, engineFor("A", 0.9))

	// Missing image payload.
	w, resp := doJSON(t, r, http.MethodPost, "/api/predict", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])

	// Undecodable image.
	w, resp = doJSON(t, r, http.MethodPost, "/api/predict", "", map[string]string{"image": "***garbage***"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])

	// Engine never loaded.
	r, _ = setupAPI(t, nil)
	w, resp = doJSON(t, r, http.MethodPost, "/api/predict", "", map[string]string{"image": testImage()})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Model not loaded", resp["error"])
}

func TestPredictAttachesIdentity(t *testing.T) {
	r, db := setupAPI(t, engineFor("A", 0.9))
	token := signupAndLogin(t, r, "signer@example.com")

	w, _ := doJSON(t, r, http.MethodPost, "/api/predict", token, map[string]string{"image": testImage()})
	require.Equal(t, http.StatusOK, w.Code)

	var entry models.PredictionLog
	require.NoError(t, db.First(&entry).Error)
	require.NotNil(t, entry.UserID)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "signer@example.com").Error)
	assert.Equal(t, user.ID, *entry.UserID)
}

func TestPredictInvalidTokenStaysAnonymous(t *testing.T) {
	r, db := setupAPI(t, engineFor("A", 0.9))

	w, resp := doJSON(t, r, http.MethodPost, "/api/predict", "not-a-real-token", map[string]string{"image": testImage()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	var entry models.PredictionLog
	require.NoError(t, db.First(&entry).Error)
	assert.Nil(t, entry.UserID)
}

func TestPredictBatchEndpoint(t *testing.T) {
	r, db := setupAPI(t, engineFor("C", 0.8))

	images := []string{testImage(), "***broken***", testImage(), testImage()}
	w, resp := doJSON(t, r, http.MethodPost, "/api/predict-batch", "", map[string]interface{}{"images": images})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	results, ok := resp["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 4)

	var ok3, failed int
	for _, raw := range results {
		res := raw.(map[string]interface{})
		if _, hasErr := res["error"]; hasErr {
			failed++
			assert.Nil(t, res["prediction"])
		} else {
			ok3++
			assert.Equal(t, "C", res["prediction"])
		}
	}
	assert.Equal(t, 3, ok3)
	assert.Equal(t, 1, failed)

	var count int64
	require.NoError(t, db.Model(&models.PredictionLog{}).Count(&count).Error)
	assert.EqualValues(t, 4, count)
}

func TestAuthFlow(t *testing.T) {
	r, _ := setupAPI(t, nil)

	// First signup is promoted to admin.
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "boss@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "admin", user["role"])

	// Duplicate email conflicts.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "boss@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Second user gets the plain role.
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "pleb@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	user = resp["user"].(map[string]interface{})
	assert.Equal(t, "user", user["role"])

	// Wrong password.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "boss@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "boss@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := resp["access_token"].(string)

	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user = resp["user"].(map[string]interface{})
	assert.Equal(t, "boss@example.com", user["email"])
	// Password hash never leaves the API.
	_, leaked := user["password_hash"]
	assert.False(t, leaked)
}

func TestPredictionsEndpointAuth(t *testing.T) {
	r, _ := setupAPI(t, engineFor("A", 0.9))

	w, _ := doJSON(t, r, http.MethodGet, "/api/predictions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	adminToken := signupAndLogin(t, r, "admin@example.com")
	userToken := signupAndLogin(t, r, "user@example.com")

	// Each caller logs one prediction.
	w, _ = doJSON(t, r, http.MethodPost, "/api/predict", adminToken, map[string]string{"image": testImage()})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/predict", userToken, map[string]string{"image": testImage()})
	require.Equal(t, http.StatusOK, w.Code)

	// Admin sees both.
	w, resp := doJSON(t, r, http.MethodGet, "/api/predictions", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, resp["total"])

	// Non-admin only their own, even when filtering by another user.
	w, resp = doJSON(t, r, http.MethodGet, "/api/predictions?user_id=1&email=admin@example.com", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp["total"])
	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
}

func TestAdminOnlyEndpoints(t *testing.T) {
	r, _ := setupAPI(t, nil)

	adminToken := signupAndLogin(t, r, "admin@example.com")
	userToken := signupAndLogin(t, r, "user@example.com")

	w, _ := doJSON(t, r, http.MethodGet, "/api/stats/summary", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := doJSON(t, r, http.MethodGet, "/api/stats/summary", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := resp["stats"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["users_count"])
	assert.Nil(t, stats["average_confidence"])
	// Both accounts just logged in.
	assert.EqualValues(t, 2, stats["active_sessions"])

	w, _ = doJSON(t, r, http.MethodGet, "/api/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := resp["users"].([]interface{})
	assert.Len(t, users, 2)
}

func TestAdminUserManagement(t *testing.T) {
	r, db := setupAPI(t, nil)

	adminToken := signupAndLogin(t, r, "admin@example.com")
	signupAndLogin(t, r, "target@example.com")

	var target models.User
	require.NoError(t, db.First(&target, "email = ?", "target@example.com").Error)

	w, resp := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/users/%d", target.ID), adminToken, map[string]interface{}{
		"blocked": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, true, user["blocked"])

	// A blocked account can no longer log in.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "target@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/users/%d", target.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

// stubGenerationService lets handler tests script the engine's behavior.
type stubGenerationService struct {
	workout    *domain.GeneratedWorkout
	err        error
	gotUserID  primitive.ObjectID
	gotRequest domain.GenerationRequest
	gotKey     string
}

func (s *stubGenerationService) GenerateWorkout(ctx context.Context, userID primitive.ObjectID, req domain.GenerationRequest, idempotencyKey string) (*domain.GeneratedWorkout, error) {
	s.gotUserID = userID
	s.gotRequest = req
	s.gotKey = idempotencyKey
	return s.workout, s.err
}

func (s *stubGenerationService) GetGenerationRequest(ctx context.Context, userID, requestID primitive.ObjectID) (*domain.GenerationRequestRecord, error) {
	return nil, service.ErrRequestNotFound
}

type stubCatalogService struct{}

func (s *stubCatalogService) ListExercises(ctx context.Context, muscleGroup, equipment string) ([]service.CatalogExercise, error) {
	return []service.CatalogExercise{}, nil
}

func newTestRouter(stub *stubGenerationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, testSecret, stub, &stubCatalogService{})
	return router
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func generateBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"fitnessLevel":          "beginner",
		"availableEquipment":    []string{"bodyweight"},
		"workoutType":           "strength",
		"targetDurationMinutes": 30,
	})
	require.NoError(t, err)
	return body
}

func doGenerate(t *testing.T, router *gin.Engine, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts/generate", bytes.NewReader(generateBody(t)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateRequiresAuth(t *testing.T) {
	router := newTestRouter(&stubGenerationService{})

	w := doGenerate(t, router, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateHappyPath(t *testing.T) {
	userID := primitive.NewObjectID()
	stub := &stubGenerationService{workout: &domain.GeneratedWorkout{ID: "w-1", FromCache: false}}
	router := newTestRouter(stub)

	w := doGenerate(t, router, signToken(t, userID.Hex()), map[string]string{IdempotencyKeyHeader: "key-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, stub.gotUserID)
	assert.Equal(t, "key-1", stub.gotKey)
	// Cached results are allowed unless the client opts out.
	assert.True(t, stub.gotRequest.AllowCachedResults)
}

func TestGenerateErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid request", service.ErrInvalidRequest, http.StatusBadRequest},
		{"no suitable exercises", service.ErrNoSuitableExercises, http.StatusUnprocessableEntity},
		{"idempotency conflict", service.ErrIdempotencyConflict, http.StatusConflict},
		{"generation failed", service.ErrGenerationFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubGenerationService{err: tt.err})
			w := doGenerate(t, router, signToken(t, primitive.NewObjectID().Hex()), nil)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubGenerationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts/generate", bytes.NewReader([]byte(`{"fitnessLevel":"beginner"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, primitive.NewObjectID().Hex()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(&stubGenerationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

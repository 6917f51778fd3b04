package controllers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/database"
	"github.com/zloomo02/LMS/backend/models"
	"github.com/zloomo02/LMS/backend/routes"
	"github.com/zloomo02/LMS/backend/services"
	"github.com/zloomo02/LMS/backend/utils"
)

const testSignature = "test-signature"

type fakeGateway struct {
	sessionURL     string
	sessionErr     error
	lastPurchaseID string
	lastAmount     float64
}

func (f *fakeGateway) CreateCheckoutSession(course *models.Course, purchaseID string, amount float64, origin string) (string, error) {
	f.lastPurchaseID = purchaseID
	f.lastAmount = amount
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	return f.sessionURL, nil
}

func (f *fakeGateway) ParseEvent(payload []byte, signature string) (*services.PaymentEvent, error) {
	if signature != testSignature {
		return nil, fmt.Errorf("%w: bad signature", services.ErrInvalidSignature)
	}
	var body struct {
		Type       string `json:"type"`
		PurchaseID string `json:"purchaseId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	switch body.Type {
	case "payment_intent.succeeded":
		return &services.PaymentEvent{Type: services.PaymentSucceeded, RawType: body.Type, PurchaseID: body.PurchaseID}, nil
	case "payment_intent.payment_failed":
		return &services.PaymentEvent{Type: services.PaymentFailed, RawType: body.Type, PurchaseID: body.PurchaseID}, nil
	default:
		return &services.PaymentEvent{Type: services.PaymentIgnored, RawType: body.Type}, nil
	}
}

type fakeVerifier struct {
	fail bool
}

func (f *fakeVerifier) Verify(payload []byte, headers http.Header) error {
	if f.fail {
		return errors.New("signature mismatch")
	}
	return nil
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	cfg      *config.Config
	gateway  *fakeGateway
	verifier *fakeVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		Currency:       "usd",
		FrontendOrigin: "http://localhost:5173",
	}
	gateway := &fakeGateway{sessionURL: "https://payments.example/session/abc"}
	verifier := &fakeVerifier{}

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, zap.NewNop().Sugar(), gateway, verifier)

	return &testEnv{app: app, db: db, cfg: cfg, gateway: gateway, verifier: verifier}
}

func (e *testEnv) seedUser(t *testing.T, id string) models.User {
	t.Helper()
	user := models.User{
		ID:       id,
		Email:    id + "@example.com",
		Name:     "Test User",
		ImageURL: "https://img.example/" + id + ".png",
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

// seedCourse creates a published course with one chapter of lectureCount
// lectures; the first lecture is a free preview.
func (e *testEnv) seedCourse(t *testing.T, price, discount float64, lectureCount int) models.Course {
	t.Helper()
	chapter := models.Chapter{
		ID:            uuid.NewString(),
		Title:         "Chapter 1",
		SequenceOrder: 1,
	}
	for i := 0; i < lectureCount; i++ {
		chapter.Lectures = append(chapter.Lectures, models.Lecture{
			ID:            fmt.Sprintf("lecture-%d", i+1),
			Title:         fmt.Sprintf("Lecture %d", i+1),
			Duration:      10,
			URL:           fmt.Sprintf("https://videos.example/%d", i+1),
			IsPreviewFree: i == 0,
			SequenceOrder: i + 1,
		})
	}
	course := models.Course{
		ID:          uuid.NewString(),
		Title:       "Test Course",
		Price:       price,
		Discount:    discount,
		IsPublished: true,
		EducatorID:  "educator-1",
		Chapters:    []models.Chapter{chapter},
	}
	require.NoError(t, e.db.Create(&course).Error)
	return course
}

func (e *testEnv) enroll(t *testing.T, userID, courseID string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Enrollment{UserID: userID, CourseID: courseID}).Error)
}

func (e *testEnv) seedPurchase(t *testing.T, userID, courseID string, amount float64, status string) models.Purchase {
	t.Helper()
	purchase := models.Purchase{
		ID:       uuid.NewString(),
		UserID:   userID,
		CourseID: courseID,
		Amount:   amount,
		Status:   status,
	}
	require.NoError(t, e.db.Create(&purchase).Error)
	return purchase
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, e.cfg)
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

// paymentEvent delivers a processor event to the payment webhook.
func (e *testEnv) paymentEvent(t *testing.T, eventType, purchaseID, signature string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"type":       eventType,
		"purchaseId": purchaseID,
	})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

// identityEvent delivers a lifecycle event to the identity webhook.
func (e *testEnv) identityEvent(t *testing.T, eventType string, data map[string]interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/clerk", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", "0")
	req.Header.Set("svix-signature", "v1,test")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

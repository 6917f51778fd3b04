package controllers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zloomo02/LMS/backend/models"
)

func TestPaymentSucceededEnrollsExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user-1")
	course := env.seedCourse(t, 100, 20, 2)
	purchase := env.seedPurchase(t, user.ID, course.ID, 80, models.PurchasePending)

	resp := env.paymentEvent(t, "payment_intent.succeeded", purchase.ID, testSignature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	env.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)

	var updated models.Purchase
	require.NoError(t, env.db.First(&updated, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.PurchaseCompleted, updated.Status)

	// Redelivery must be a no-op.
	resp = env.paymentEvent(t, "payment_intent.succeeded", purchase.ID, testSignature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, env.db.First(&updated, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.PurchaseCompleted, updated.Status)

	// The user sees the course exactly once.
	listResp := env.request(t, "GET", "/api/user/enrolled-courses", nil, env.token(t, user.ID))
	assert.Equal(t, fiber.StatusOK, listResp.StatusCode)
	body := decodeBody(t, listResp)
	assert.Len(t, body["enrolledCourses"], 1)
}

func TestPaymentFailedMarksPurchaseFailed(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user-1")
	course := env.seedCourse(t, 50, 0, 1)
	purchase := env.seedPurchase(t, user.ID, course.ID, 50, models.PurchasePending)

	resp := env.paymentEvent(t, "payment_intent.payment_failed", purchase.ID, testSignature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Purchase
	require.NoError(t, env.db.First(&updated, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.PurchaseFailed, updated.Status)

	// No enrollment happens on failure.
	var count int64
	env.db.Model(&models.Enrollment{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPaymentFailedDoesNotDowngradeCompleted(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user-1")
	course := env.seedCourse(t, 50, 0, 1)
	purchase := env.seedPurchase(t, user.ID, course.ID, 50, models.PurchasePending)

	resp := env.paymentEvent(t, "payment_intent.succeeded", purchase.ID, testSignature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.paymentEvent(t, "payment_intent.payment_failed", purchase.ID, testSignature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Purchase
	require.NoError(t, env.db.First(&updated, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.PurchaseCompleted, updated.Status)
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user-1")
	course := env.seedCourse(t, 50, 0, 1)
	purchase := env.seedPurchase(t, user.ID, course.ID, 50, models.PurchasePending)

	resp := env.paymentEvent(t, "payment_intent.succeeded", purchase.ID, "forged")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var updated models.Purchase
	require.NoError(t, env.db.First(&updated, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.PurchasePending, updated.Status)
}

func TestPaymentWebhookAcknowledgesUnknownEventType(t *testing.T) {
	env := newTestEnv(t)

	resp := env.paymentEvent(t, "charge.refunded", "", testSignature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["received"])
}

func TestPaymentWebhookUnknownPurchaseTriggersRetry(t *testing.T) {
	env := newTestEnv(t)

	resp := env.paymentEvent(t, "payment_intent.succeeded", "missing-purchase", testSignature)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestIdentityUserCreated(t *testing.T) {
	env := newTestEnv(t)

	resp := env.identityEvent(t, "user.created", map[string]interface{}{
		"id":              "user-42",
		"first_name":      "Ada",
		"last_name":       "Lovelace",
		"image_url":       "https://img.example/ada.png",
		"email_addresses": []map[string]string{{"email_address": "ada@example.com"}},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, env.db.First(&user, "id = ?", "user-42").Error)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "https://img.example/ada.png", user.ImageURL)
}

func TestIdentityUserCreatedRequiresAllFields(t *testing.T) {
	env := newTestEnv(t)

	resp := env.identityEvent(t, "user.created", map[string]interface{}{
		"id":         "user-42",
		"first_name": "Ada",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestIdentityUserUpdatedPatchesOnlyPresentFields(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "user-1")

	resp := env.identityEvent(t, "user.updated", map[string]interface{}{
		"id":        "user-1",
		"image_url": "https://img.example/new.png",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, env.db.First(&user, "id = ?", "user-1").Error)
	assert.Equal(t, "https://img.example/new.png", user.ImageURL)
	assert.Equal(t, "Test User", user.Name)
	assert.Equal(t, "user-1@example.com", user.Email)
}

func TestIdentityUserDeletedKeepsHistoricalRecords(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "user-1")
	course := env.seedCourse(t, 50, 0, 1)
	env.enroll(t, user.ID, course.ID)
	purchase := env.seedPurchase(t, user.ID, course.ID, 50, models.PurchaseCompleted)

	resp := env.identityEvent(t, "user.deleted", map[string]interface{}{"id": "user-1"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	env.db.Model(&models.User{}).Where("id = ?", "user-1").Count(&count)
	assert.Equal(t, int64(0), count)

	env.db.Model(&models.Enrollment{}).Where("user_id = ?", "user-1").Count(&count)
	assert.Equal(t, int64(0), count)

	// Purchases stay behind as orphaned history.
	env.db.Model(&models.Purchase{}).Where("id = ?", purchase.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestIdentityWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.fail = true

	resp := env.identityEvent(t, "user.created", map[string]interface{}{
		"id":              "user-42",
		"first_name":      "Ada",
		"last_name":       "Lovelace",
		"image_url":       "https://img.example/ada.png",
		"email_addresses": []map[string]string{{"email_address": "ada@example.com"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestIdentityWebhookIgnoresUnknownEventType(t *testing.T) {
	env := newTestEnv(t)

	resp := env.identityEvent(t, "session.created", map[string]interface{}{"id": "sess-1"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

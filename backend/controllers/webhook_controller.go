package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/models"
	"github.com/zloomo02/LMS/backend/services"
	"github.com/zloomo02/LMS/backend/utils"
)

type WebhookController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Gateway  services.PaymentGateway
	Verifier services.IdentityVerifier
	Log      *zap.SugaredLogger
}

func NewWebhookController(db *gorm.DB, cfg *config.Config, gateway services.PaymentGateway, verifier services.IdentityVerifier, log *zap.SugaredLogger) *WebhookController {
	return &WebhookController{DB: db, Cfg: cfg, Gateway: gateway, Verifier: verifier, Log: log}
}

// StripeWebhook godoc
// @Summary Payment processor webhook
// @Description Consumes payment success/failure events and reconciles purchases
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Router /stripe [post]
func (wc *WebhookController) StripeWebhook(c *fiber.Ctx) error {
	// c.Body() is the raw payload; signature verification needs it untouched.
	event, err := wc.Gateway.ParseEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			wc.Log.Warnw("payment webhook rejected", "error", err)
			return utils.BadRequest(c, "Invalid webhook signature")
		}
		// Resolution faults get a failure status so the processor redelivers.
		wc.Log.Errorw("payment event resolution failed", "error", err)
		return utils.InternalServerError(c, "Could not process event")
	}

	switch event.Type {
	case services.PaymentSucceeded:
		if err := wc.completePurchase(event.PurchaseID); err != nil {
			wc.Log.Errorw("purchase completion failed", "purchase", event.PurchaseID, "error", err)
			return utils.InternalServerError(c, "Could not process event")
		}
	case services.PaymentFailed:
		if err := wc.failPurchase(event.PurchaseID); err != nil {
			wc.Log.Errorw("purchase failure handling failed", "purchase", event.PurchaseID, "error", err)
			return utils.InternalServerError(c, "Could not process event")
		}
	default:
		// Unknown event types are acknowledged so the processor does not
		// retry them forever.
		wc.Log.Infow("ignoring payment event", "type", event.RawType)
	}

	return c.JSON(fiber.Map{"received": true})
}

// completePurchase enrolls the buyer and marks the purchase completed.
// Safe under at-least-once delivery: an already completed purchase is a
// no-op, the enrollment insert is keyed (user, course), and the status
// update runs last so a crash anywhere before it leaves the event
// retriable.
func (wc *WebhookController) completePurchase(purchaseID string) error {
	var purchase models.Purchase
	if err := wc.DB.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		return err
	}

	if purchase.Status == models.PurchaseCompleted {
		wc.Log.Infow("purchase already completed, skipping redelivery", "purchase", purchase.ID)
		return nil
	}

	enrollment := models.Enrollment{UserID: purchase.UserID, CourseID: purchase.CourseID}
	if err := wc.DB.FirstOrCreate(&enrollment, models.Enrollment{
		UserID:   purchase.UserID,
		CourseID: purchase.CourseID,
	}).Error; err != nil {
		return err
	}

	return wc.DB.Model(&purchase).Update("status", models.PurchaseCompleted).Error
}

// failPurchase marks the purchase failed. Completed is terminal and wins
// over a late failure event.
func (wc *WebhookController) failPurchase(purchaseID string) error {
	var purchase models.Purchase
	if err := wc.DB.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		return err
	}

	switch purchase.Status {
	case models.PurchaseCompleted:
		wc.Log.Infow("ignoring failure event for completed purchase", "purchase", purchase.ID)
		return nil
	case models.PurchaseFailed:
		wc.Log.Infow("purchase already failed, skipping redelivery", "purchase", purchase.ID)
		return nil
	}

	return wc.DB.Model(&purchase).Update("status", models.PurchaseFailed).Error
}

type identityEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type identityUserData struct {
	ID             string  `json:"id"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	ImageURL       *string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (d *identityUserData) email() string {
	if len(d.EmailAddresses) == 0 {
		return ""
	}
	return d.EmailAddresses[0].EmailAddress
}

// ClerkWebhook mirrors identity-provider user lifecycle events into the
// users table.
func (wc *WebhookController) ClerkWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	if err := wc.Verifier.Verify(payload, identityHeaders(c)); err != nil {
		wc.Log.Warnw("identity webhook rejected", "error", err)
		return utils.BadRequest(c, "Invalid webhook signature")
	}

	var event identityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return utils.BadRequest(c, "Invalid event payload")
	}

	switch event.Type {
	case "user.created":
		return wc.createUser(c, event.Data)
	case "user.updated":
		return wc.updateUser(c, event.Data)
	case "user.deleted":
		return wc.deleteUser(c, event.Data)
	default:
		wc.Log.Infow("ignoring identity event", "type", event.Type)
		return c.JSON(fiber.Map{"success": true})
	}
}

func (wc *WebhookController) createUser(c *fiber.Ctx, raw json.RawMessage) error {
	var data identityUserData
	if err := json.Unmarshal(raw, &data); err != nil {
		return utils.BadRequest(c, "Invalid event payload")
	}

	// All fields are mandatory at creation time.
	if data.ID == "" || data.email() == "" || data.FirstName == nil || data.LastName == nil || data.ImageURL == nil {
		return utils.BadRequest(c, "Missing required user fields")
	}

	user := models.User{
		ID:       data.ID,
		Email:    data.email(),
		Name:     *data.FirstName + " " + *data.LastName,
		ImageURL: *data.ImageURL,
	}
	if err := wc.DB.Create(&user).Error; err != nil {
		wc.Log.Errorw("user creation failed", "user", data.ID, "error", err)
		return utils.InternalServerError(c, "Could not create user")
	}

	return c.JSON(fiber.Map{"success": true})
}

func (wc *WebhookController) updateUser(c *fiber.Ctx, raw json.RawMessage) error {
	var data identityUserData
	if err := json.Unmarshal(raw, &data); err != nil {
		return utils.BadRequest(c, "Invalid event payload")
	}
	if data.ID == "" {
		return utils.BadRequest(c, "Missing user id")
	}

	// Patch only the fields present in the event.
	updates := map[string]interface{}{}
	if email := data.email(); email != "" {
		updates["email"] = email
	}
	if data.FirstName != nil && data.LastName != nil {
		updates["name"] = *data.FirstName + " " + *data.LastName
	}
	if data.ImageURL != nil {
		updates["image_url"] = *data.ImageURL
	}

	if len(updates) > 0 {
		if err := wc.DB.Model(&models.User{}).Where("id = ?", data.ID).Updates(updates).Error; err != nil {
			wc.Log.Errorw("user update failed", "user", data.ID, "error", err)
			return utils.InternalServerError(c, "Could not update user")
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

// deleteUser removes the user and its enrollment links. Purchases and
// progress rows referencing the user are kept as orphaned history.
func (wc *WebhookController) deleteUser(c *fiber.Ctx, raw json.RawMessage) error {
	var data identityUserData
	if err := json.Unmarshal(raw, &data); err != nil {
		return utils.BadRequest(c, "Invalid event payload")
	}
	if data.ID == "" {
		return utils.BadRequest(c, "Missing user id")
	}

	if err := wc.DB.Where("user_id = ?", data.ID).Delete(&models.Enrollment{}).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}
	if err := wc.DB.Delete(&models.User{}, "id = ?", data.ID).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}

	return c.JSON(fiber.Map{"success": true})
}

func identityHeaders(c *fiber.Ctx) http.Header {
	headers := http.Header{}
	for _, key := range []string{"svix-id", "svix-timestamp", "svix-signature"} {
		if v := c.Get(key); v != "" {
			headers.Set(key, v)
		}
	}
	return headers
}

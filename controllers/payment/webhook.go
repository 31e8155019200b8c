package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	courseControllers "lms/controllers/course"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const checkoutCompleted = "checkout.session.completed"

var errUnsignedRejected = errors.New("webhook secret not configured")

// SessionFetcher confirms a checkout session with the provider.
type SessionFetcher interface {
	CheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

// Webhook handles Stripe events. It records the payment and enrolls the
// learner; it never touches progress or certificates.
type Webhook struct {
	// Secret verifies the Stripe-Signature header. Without it every event is
	// rejected unless AllowUnsigned is set.
	Secret string
	// AllowUnsigned accepts unsigned events when Secret is empty. Local development only.
	AllowUnsigned bool
	// Sessions re-reads the session from Stripe when set.
	Sessions      SessionFetcher
	Notifications courseControllers.EnrollmentNotifier
	Now           func() time.Time
}

func (w *Webhook) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// event verifies and decodes payload. verified is false only for unsigned
// development events.
func (w *Webhook) event(payload []byte, signature string) (event stripe.Event, verified bool, err error) {
	if w.Secret != "" {
		event, err = utils.ConstructStripeEvent(payload, signature, w.Secret)
		return event, err == nil, err
	}
	if !w.AllowUnsigned {
		return event, false, errUnsignedRejected
	}
	err = json.Unmarshal(payload, &event)
	return event, false, err
}

func (w *Webhook) Handle(c *fiber.Ctx) error {
	payload := c.Body()

	event, verified, err := w.event(payload, c.Get("Stripe-Signature"))
	if errors.Is(err, errUnsignedRejected) {
		logger.Log.Error("[PAYMENT] webhook rejected: STRIPE_WEBHOOK_SECRET is not set", "ip", c.IP())
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment webhook is not configured!", nil)
	}
	if err != nil {
		logger.Log.Warn("[PAYMENT] rejected webhook", "error", err, "ip", c.IP())
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook event!", nil)
	}
	if string(event.Type) != checkoutCompleted {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Event ignored.", fiber.Map{"type": event.Type})
	}

	session, err := utils.CheckoutSessionFromEvent(event)
	if err != nil || session.ID == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing checkout session!", nil)
	}
	if w.Sessions != nil {
		confirmed, err := w.Sessions.CheckoutSession(c.UserContext(), session.ID)
		if err != nil {
			logger.Log.Error("[PAYMENT] session confirmation failed", "session", session.ID, "error", err)
			return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Could not confirm payment!", nil)
		}
		// Only a signed body may fill in ids the provider's copy lacks.
		if verified {
			if confirmed.Metadata == nil {
				confirmed.Metadata = session.Metadata
			}
			if confirmed.ClientReferenceID == "" {
				confirmed.ClientReferenceID = session.ClientReferenceID
			}
		}
		session = confirmed
	}
	if !utils.SessionPaid(session) {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Session not paid, ignored.", nil)
	}

	userID, courseID, err := sessionTarget(session)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	}

	var (
		enrollment *courseModels.Enrollment
		created    bool
		duplicate  bool
	)
	err = database.Database.Db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return errUnknownTarget
		}
		var course courseModels.Course
		if err := tx.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
			return errUnknownTarget
		}

		txn := models.Transactions{
			UserID:      userID,
			CourseID:    courseID,
			Amount:      session.AmountTotal,
			Currency:    string(session.Currency),
			Provider:    "stripe",
			ProviderRef: session.ID,
			Status:      models.TransactionCompleted,
			Payload:     datatypes.JSON(payload),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_ref"}},
			DoNothing: true,
		}).Create(&txn)
		if res.Error != nil {
			return res.Error
		}
		duplicate = res.RowsAffected == 0

		enrollment, created, err = courseControllers.UpsertEnrollment(tx, userID, courseID, w.now().UTC())
		if err != nil {
			return err
		}
		if duplicate {
			return nil
		}
		return tx.Model(&txn).Update("enrollment_id", enrollment.ID).Error
	})
	if err != nil {
		if errors.Is(err, errUnknownTarget) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unknown learner or course!", nil)
		}
		logger.Log.Error("[PAYMENT] webhook processing failed", "session", session.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record payment!", nil)
	}

	if created && w.Notifications != nil {
		if err := w.Notifications.EnrollmentCreated(c.UserContext(), enrollment); err != nil {
			logger.Log.Warn("[PAYMENT] enrollment notification failed", "enrollment_id", enrollment.ID, "error", err)
		}
	}
	logger.Log.Info("[PAYMENT] checkout processed", "session", session.ID, "enrollment_id", enrollment.ID, "duplicate", duplicate)

	message := "Payment recorded."
	if duplicate {
		message = "Payment already recorded."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"enrollment": enrollment,
		"created":    created,
		"duplicate":  duplicate,
	})
}

var errUnknownTarget = errors.New("unknown learner or course")

// sessionTarget reads the learner and course from session metadata, falling
// back to client_reference_id for the learner.
func sessionTarget(s *stripe.CheckoutSession) (uint, uint, error) {
	rawUser := s.Metadata["user_id"]
	if rawUser == "" {
		rawUser = s.ClientReferenceID
	}
	userID, err := strconv.ParseUint(rawUser, 10, 64)
	if err != nil || userID == 0 {
		return 0, 0, errors.New("missing or invalid user_id metadata")
	}
	courseID, err := strconv.ParseUint(s.Metadata["course_id"], 10, 64)
	if err != nil || courseID == 0 {
		return 0, 0, errors.New("missing or invalid course_id metadata")
	}
	return uint(userID), uint(courseID), nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/pkg/sms"
	"github.com/travellanka/listings-backend/pkg/validator"
)

const notificationTimeout = 10 * time.Second

// NotificationService texts owners when their listing goes live.
// Delivery failures are logged and never fail the activation.
type NotificationService struct {
	gateway sms.Gateway
	phones  *validator.PhoneValidator
	logger  *logrus.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(gateway sms.Gateway, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		gateway: gateway,
		phones:  validator.NewPhoneValidator(),
		logger:  logger,
	}
}

// ActivationMessage is the text sent when a listing is activated
func ActivationMessage(listing models.BusinessListing) string {
	return fmt.Sprintf("Travel Lanka: your %s \"%s\" is now live and visible to travellers.",
		listing.Type(), listing.Base().Name)
}

// ListingActivated implements ActivationNotifier
func (s *NotificationService) ListingActivated(ctx context.Context, owner *models.Account, listing models.BusinessListing) {
	log := s.logger.WithFields(logrus.Fields{
		"owner_id":   owner.ID.String(),
		"listing_id": listing.Base().ID,
		"gateway":    s.gateway.Name(),
	})

	if !owner.Phone.Valid || !s.phones.IsMobile(owner.Phone.String) {
		log.Debug("Owner has no mobile number, skipping activation SMS")
		return
	}

	phone, err := s.phones.Validate(owner.Phone.String)
	if err != nil {
		log.WithError(err).Warn("Invalid owner phone number")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	if err := s.gateway.Send(sendCtx, phone, ActivationMessage(listing)); err != nil {
		log.WithError(err).Error("Failed to send activation SMS")
		return
	}

	log.Info("Activation SMS sent")
}

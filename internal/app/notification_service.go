package app

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
)

// NotificationService validates text notifications and hands them to the
// transport. It never splits messages itself.
type NotificationService struct {
	transport  domain.TextTransport
	permission domain.SMSPermission
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(transport domain.TextTransport, permission domain.SMSPermission) *NotificationService {
	return &NotificationService{transport: transport, permission: permission}
}

// Notify sends message to phone. A nil error means the message was handed to
// the transport; otherwise the error matches one of domain.ErrInvalidRecipient,
// domain.ErrInvalidInput, domain.ErrPermissionDenied or domain.ErrTransport.
func (s *NotificationService) Notify(ctx context.Context, phone, message string) error {
	phone = strings.TrimSpace(phone)
	if !domain.ValidPhoneNumber(phone) {
		return domain.ErrInvalidRecipient
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is blank", domain.ErrInvalidInput)
	}

	if !s.PermissionGranted(ctx) {
		return domain.ErrPermissionDenied
	}

	var err error
	if utf8.RuneCountInString(message) > s.transport.SingleMessageLimit() {
		err = s.transport.SendMultipartText(ctx, phone, message)
	} else {
		err = s.transport.SendText(ctx, phone, message)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return nil
}

// PermissionGranted queries the permission collaborator. Lookup failures
// count as not granted.
func (s *NotificationService) PermissionGranted(ctx context.Context) bool {
	granted, err := s.permission.SMSGranted(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("sms permission lookup failed", "err", err)
		return false
	}
	return granted
}

// RequestPermission asks the permission collaborator to prompt for the grant.
func (s *NotificationService) RequestPermission(ctx context.Context) error {
	return s.permission.RequestSMS(ctx)
}

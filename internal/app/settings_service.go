package app

import (
	"context"
	"fmt"
	"strings"

	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
)

// SettingsService manages the process-wide preferences: the notification
// phone number and the SMS permission state.
type SettingsService struct {
	settings domain.SettingsRepository
	notifier *NotificationService
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(settings domain.SettingsRepository, notifier *NotificationService) *SettingsService {
	return &SettingsService{settings: settings, notifier: notifier}
}

// PhoneNumber returns the stored phone number, "" when unset.
func (s *SettingsService) PhoneNumber(ctx context.Context) (string, error) {
	v, _, err := s.settings.GetSetting(ctx, domain.SettingPhoneNumber)
	if err != nil {
		return "", storageErr(err)
	}
	return v, nil
}

// SetPhoneNumber stores phone; an empty value clears it. Saving a number while
// the permission is missing triggers a permission request.
func (s *SettingsService) SetPhoneNumber(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone != "" && !domain.ValidPhoneNumber(phone) {
		return fmt.Errorf("%w: phone number", domain.ErrInvalidInput)
	}
	if err := s.settings.PutSetting(ctx, domain.SettingPhoneNumber, phone); err != nil {
		return storageErr(err)
	}

	if phone != "" && !s.notifier.PermissionGranted(ctx) {
		if err := s.notifier.RequestPermission(ctx); err != nil {
			logging.FromContext(ctx).Warn("sms permission request failed", "err", err)
		}
	}
	return nil
}

// SMSPermissionState returns the stored permission state, "" when never set.
func (s *SettingsService) SMSPermissionState(ctx context.Context) (string, error) {
	v, _, err := s.settings.GetSetting(ctx, domain.SettingSMSPermission)
	if err != nil {
		return "", storageErr(err)
	}
	return v, nil
}

// SMSGranted reports whether text messages may currently be sent.
func (s *SettingsService) SMSGranted(ctx context.Context) bool {
	return s.notifier.PermissionGranted(ctx)
}

// SetSMSPermission records the user's answer to a permission request.
func (s *SettingsService) SetSMSPermission(ctx context.Context, granted bool) error {
	state := domain.SMSPermissionDenied
	if granted {
		state = domain.SMSPermissionGranted
	}
	if err := s.settings.PutSetting(ctx, domain.SettingSMSPermission, state); err != nil {
		return storageErr(err)
	}
	return nil
}

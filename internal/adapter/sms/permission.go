package sms

import (
	"context"

	"weighttracker/internal/domain"
	"weighttracker/internal/logging"
)

// StaticPermission is a fixed answer from configuration.
type StaticPermission struct {
	Granted bool
}

var (
	_ domain.SMSPermission = StaticPermission{}
	_ domain.SMSPermission = (*SettingsPermission)(nil)
)

// SMSGranted returns the configured answer.
func (p StaticPermission) SMSGranted(context.Context) (bool, error) {
	return p.Granted, nil
}

// RequestSMS only logs; a static answer cannot change at runtime.
func (p StaticPermission) RequestSMS(ctx context.Context) error {
	if !p.Granted {
		logging.FromContext(ctx).Info("sms permission requested but disabled by configuration")
	}
	return nil
}

// SettingsPermission keeps the grant in the settings store under
// domain.SettingSMSPermission. The user answers requests through the API.
type SettingsPermission struct {
	settings domain.SettingsRepository
}

// NewSettingsPermission creates a SettingsPermission.
func NewSettingsPermission(settings domain.SettingsRepository) *SettingsPermission {
	return &SettingsPermission{settings: settings}
}

// SMSGranted reports whether the stored state is granted.
func (p *SettingsPermission) SMSGranted(ctx context.Context) (bool, error) {
	v, _, err := p.settings.GetSetting(ctx, domain.SettingSMSPermission)
	if err != nil {
		return false, err
	}
	return v == domain.SMSPermissionGranted, nil
}

// RequestSMS marks the permission as requested unless it is already granted.
func (p *SettingsPermission) RequestSMS(ctx context.Context) error {
	granted, err := p.SMSGranted(ctx)
	if err != nil {
		return err
	}
	if granted {
		return nil
	}
	logging.FromContext(ctx).Info("sms permission requested")
	return p.settings.PutSetting(ctx, domain.SettingSMSPermission, domain.SMSPermissionRequested)
}

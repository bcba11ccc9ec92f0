package domain

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// SettingPhoneNumber is the settings key holding the notification recipient.
const SettingPhoneNumber = "phone_number"

// SettingSMSPermission is the settings key recording the SMS grant.
const SettingSMSPermission = "sms_permission"

// Values of SettingSMSPermission.
const (
	SMSPermissionGranted   = "granted"
	SMSPermissionDenied    = "denied"
	SMSPermissionRequested = "requested"
)

// DefaultSingleMessageLimit is the single-part length of a text message.
const DefaultSingleMessageLimit = 160

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidPhoneNumber reports whether phone is an optional '+' followed by 2-15
// digits with a non-zero first digit.
func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// TextTransport sends text messages. SendMultipartText splits the message
// itself; callers only choose between the two.
type TextTransport interface {
	SendText(ctx context.Context, phone, message string) error
	SendMultipartText(ctx context.Context, phone, message string) error
	SingleMessageLimit() int
}

// SMSPermission reports and requests the permission to send text messages.
type SMSPermission interface {
	SMSGranted(ctx context.Context) (bool, error)
	RequestSMS(ctx context.Context) error
}

// SettingsRepository is the process-wide key-value preference store.
// GetSetting reports ok=false for a missing key.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
	PutSetting(ctx context.Context, key, value string) error
}

// NotifyStatus is the reportable outcome of a notification attempt.
type NotifyStatus string

const (
	NotifySent             NotifyStatus = "sent"
	NotifySkipped          NotifyStatus = "skipped"
	NotifyPermissionDenied NotifyStatus = "permission_denied"
	NotifyInvalidRecipient NotifyStatus = "invalid_recipient"
	NotifyInvalidMessage   NotifyStatus = "invalid_message"
	NotifyTransportError   NotifyStatus = "transport_error"
)

// NotifyStatusOf maps a Notify error to its status.
func NotifyStatusOf(err error) NotifyStatus {
	switch {
	case err == nil:
		return NotifySent
	case errors.Is(err, ErrPermissionDenied):
		return NotifyPermissionDenied
	case errors.Is(err, ErrInvalidRecipient):
		return NotifyInvalidRecipient
	case errors.Is(err, ErrInvalidInput):
		return NotifyInvalidMessage
	default:
		return NotifyTransportError
	}
}

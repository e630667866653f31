package validators

import (
	"strings"

	"clinic-queue.com/clinic-queue/internal/constants"
	dto "clinic-queue.com/clinic-queue/internal/data_models"
	apperrors "clinic-queue.com/clinic-queue/internal/errors"
)

// ValidateCreateTokenRequest only checks presence; length and phone rules
// belong to the queue service.
func ValidateCreateTokenRequest(r *dto.CreateTokenRequest) error {
	fields := make(map[string]string)
	if strings.TrimSpace(r.PatientName) == "" {
		fields["patientName"] = "patient name is required"
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		fields["phoneNumber"] = "phone number is required"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	return nil
}

func ValidateUpdateStatusRequest(r *dto.UpdateStatusRequest) (constants.TokenStatus, error) {
	status, ok := constants.ParseTokenStatus(strings.TrimSpace(r.Status))
	if !ok {
		return "", apperrors.NewValidationError(map[string]string{
			"status": "status must be one of waiting, serving, completed, skipped, canceled",
		})
	}
	return status, nil
}

func ValidateSetVIPRequest(r *dto.SetVIPRequest) (bool, error) {
	if r.IsVIP == nil {
		return false, apperrors.NewValidationError(map[string]string{
			"isVIP": "isVIP must be a boolean",
		})
	}
	return *r.IsVIP, nil
}

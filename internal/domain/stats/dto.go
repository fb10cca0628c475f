package stats

import (
	"strings"

	"github.com/uniwork/uniwork-backend-go/internal/pkg/validator"
)

type GetStatsRequest struct {
	UserID   string `json:"-"`
	Currency string `json:"currency,omitempty"` // display currency, ISO 4217
}

func (r *GetStatsRequest) Validate(requireUser bool) error {
	var errs validator.ValidationErrors

	if requireUser {
		if validator.IsEmpty(r.UserID) {
			errs = append(errs, validator.ValidationError{
				Field:   "user_id",
				Message: "user_id is required",
			})
		} else if !validator.IsValidUUID(r.UserID) {
			errs = append(errs, validator.ValidationError{
				Field:   "user_id",
				Message: "user_id must be a valid UUID",
			})
		}
	}

	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency != "" && !validator.IsValidCurrencyCode(r.Currency) {
		errs = append(errs, validator.ValidationError{
			Field:   "currency",
			Message: "currency must be an ISO 4217 code",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

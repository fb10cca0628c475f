package attendance

import (
	"strings"
	"time"

	"github.com/uniwork/uniwork-backend-go/internal/pkg/validator"
)

type BreakResponse struct {
	ID         string  `json:"id"`
	BreakStart *string `json:"break_start,omitempty"`
	BreakEnd   *string `json:"break_end,omitempty"`
}

type AttendanceResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	WorkStart  *string         `json:"work_start,omitempty"`
	WorkEnd    *string         `json:"work_end,omitempty"`
	NetMinutes *int64          `json:"net_minutes,omitempty"`
	Approved   bool            `json:"approved"`
	ApprovedBy *string         `json:"approved_by,omitempty"`
	ApprovedAt *string         `json:"approved_at,omitempty"`
	Breaks     []BreakResponse `json:"breaks"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

type MyAttendanceFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD, compared against work_start
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD, inclusive
	Approved  *bool   `json:"approved,omitempty"`

	// Resolved by the service from StartDate/EndDate in the company timezone
	From *time.Time `json:"-"`
	To   *time.Time `json:"-"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	startOK, endOK := false, false
	if f.StartDate != nil && *f.StartDate != "" {
		if _, startOK = validator.IsValidDate(*f.StartDate); !startOK {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, endOK = validator.IsValidDate(*f.EndDate); !endOK {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	// YYYY-MM-DD compares correctly as a string
	if startOK && endOK && *f.StartDate > *f.EndDate {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type ApproveAttendanceRequest struct {
	ID string `json:"-"`
}

func (r *ApproveAttendanceRequest) Validate() error {
	if !validator.IsValidUUID(r.ID) {
		return validator.ValidationErrors{{
			Field:   "id",
			Message: "id must be a valid UUID",
		}}
	}
	return nil
}

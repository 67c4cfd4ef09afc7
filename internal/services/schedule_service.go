package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"finledger/internal/calendar"
	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/recurrence"
)

// scheduleService is the store of recurring schedules.
type scheduleService struct {
	db *gorm.DB
}

// NewScheduleService creates a new ScheduleServicer.
func NewScheduleService(db *gorm.DB) ScheduleServicer {
	return &scheduleService{db: db}
}

func invalidSchedule(format string, args ...any) error {
	return apperrors.WithMessage(apperrors.ErrInvalidSchedule, fmt.Sprintf(format, args...))
}

// validateSchedule checks a schedule's shape and that its accounts exist.
func validateSchedule(tx *gorm.DB, s *models.RecurringSchedule) error {
	if _, err := recurrence.MatcherFor(s.Frequency); err != nil {
		return invalidSchedule("frequency must be daily, weekly or monthly")
	}

	switch s.Frequency {
	case models.FrequencyWeekly:
		if s.DayOfWeek == nil || *s.DayOfWeek < 0 || *s.DayOfWeek > 6 {
			return invalidSchedule("weekly schedules need day_of_week between 0 and 6")
		}
		if s.DayOfMonth != nil {
			return invalidSchedule("weekly schedules must not set day_of_month")
		}
	case models.FrequencyMonthly:
		if s.DayOfMonth == nil || *s.DayOfMonth < 1 || *s.DayOfMonth > 31 {
			return invalidSchedule("monthly schedules need day_of_month between 1 and 31")
		}
		if s.DayOfWeek != nil {
			return invalidSchedule("monthly schedules must not set day_of_week")
		}
	case models.FrequencyDaily:
		if s.DayOfWeek != nil || s.DayOfMonth != nil {
			return invalidSchedule("daily schedules take no day fields")
		}
	}

	if s.AccountID == "" {
		return invalidSchedule("account_id is required")
	}
	if s.Amount.IsZero() {
		return invalidSchedule("amount must not be zero")
	}
	if s.AmountTo.Valid && !s.AmountTo.Decimal.IsPositive() {
		return invalidSchedule("amount_to must be greater than zero")
	}
	if s.RemainingOccurrences != nil && *s.RemainingOccurrences < 1 {
		return invalidSchedule("remaining_occurrences must be at least 1")
	}

	switch s.Kind {
	case models.ScheduleKindTransfer:
		if s.ToAccountID == nil || *s.ToAccountID == "" {
			return invalidSchedule("transfer schedules need to_account_id")
		}
		if *s.ToAccountID == s.AccountID {
			return apperrors.ErrSameAccountTransfer
		}
		if !s.Amount.IsPositive() {
			return invalidSchedule("transfer amount must be greater than zero")
		}
	case models.ScheduleKindTransaction:
		if s.ToAccountID != nil {
			return invalidSchedule("transaction schedules must not set to_account_id")
		}
		if s.CategoryID == nil || *s.CategoryID == "" {
			return invalidSchedule("transaction schedules need category_id")
		}
		if s.AmountTo.Valid {
			return invalidSchedule("transaction schedules must not set amount_to")
		}
	default:
		return invalidSchedule("kind must be transaction or transfer")
	}

	if _, err := loadAccount(tx, s.AccountID); err != nil {
		return err
	}
	if s.ToAccountID != nil {
		if _, err := loadAccount(tx, *s.ToAccountID); err != nil {
			return err
		}
	}
	return nil
}

// CreateSchedule validates and stores a new active schedule.
func (s *scheduleService) CreateSchedule(ctx context.Context, input ScheduleInput) (*models.RecurringSchedule, error) {
	schedule := &models.RecurringSchedule{
		Kind:                 input.Kind,
		Frequency:            input.Frequency,
		DayOfWeek:            input.DayOfWeek,
		DayOfMonth:           input.DayOfMonth,
		AccountID:            input.AccountID,
		ToAccountID:          input.ToAccountID,
		CategoryID:           input.CategoryID,
		Amount:               input.Amount,
		AmountTo:             input.AmountTo,
		Description:          input.Description,
		IsActive:             true,
		RemainingOccurrences: input.RemainingOccurrences,
	}
	if input.EndDate != nil {
		end := calendar.Day(*input.EndDate)
		schedule.EndDate = &end
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateSchedule(tx, schedule); err != nil {
			return err
		}
		if err := tx.Create(schedule).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// GetSchedule retrieves a schedule by ID.
func (s *scheduleService) GetSchedule(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	var schedule models.RecurringSchedule
	if err := s.db.WithContext(ctx).First(&schedule, "id = ?", id).Error; err != nil {
		return nil, storeError(err, apperrors.ErrScheduleNotFound)
	}
	return &schedule, nil
}

// ListSchedules retrieves a paginated, filtered list of schedules.
func (s *scheduleService) ListSchedules(ctx context.Context, filter ScheduleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringSchedule], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.RecurringSchedule{})
	if filter.AccountID != nil {
		base = base.Where("account_id = ? OR to_account_id = ?", *filter.AccountID, *filter.AccountID)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Kind != nil {
		base = base.Where("kind = ?", *filter.Kind)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	var schedules []models.RecurringSchedule
	if err := base.Order("created_at ASC").Order("id ASC").Scopes(pagination.Paginate(page)).Find(&schedules).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	result := pagination.NewPageResponse(schedules, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// FindActive returns every active schedule in creation order.
func (s *scheduleService) FindActive(ctx context.Context) ([]models.RecurringSchedule, error) {
	var schedules []models.RecurringSchedule
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").Order("id ASC").
		Find(&schedules).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	return schedules, nil
}

// UpdateSchedule applies the given fields and re-validates the result.
// Changing frequency clears day fields that no longer apply unless they
// are supplied in the same update.
func (s *scheduleService) UpdateSchedule(ctx context.Context, id string, fields ScheduleUpdateFields) (*models.RecurringSchedule, error) {
	var schedule models.RecurringSchedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&schedule, "id = ?", id).Error; err != nil {
			return storeError(err, apperrors.ErrScheduleNotFound)
		}

		if fields.Frequency != nil && *fields.Frequency != schedule.Frequency {
			schedule.Frequency = *fields.Frequency
			if fields.DayOfWeek == nil && schedule.Frequency != models.FrequencyWeekly {
				schedule.DayOfWeek = nil
			}
			if fields.DayOfMonth == nil && schedule.Frequency != models.FrequencyMonthly {
				schedule.DayOfMonth = nil
			}
		}
		if fields.DayOfWeek != nil {
			schedule.DayOfWeek = *fields.DayOfWeek
		}
		if fields.DayOfMonth != nil {
			schedule.DayOfMonth = *fields.DayOfMonth
		}
		if fields.ToAccountID != nil {
			schedule.ToAccountID = *fields.ToAccountID
		}
		if fields.CategoryID != nil {
			schedule.CategoryID = *fields.CategoryID
		}
		if fields.Amount != nil {
			schedule.Amount = *fields.Amount
		}
		if fields.AmountTo != nil {
			schedule.AmountTo = *fields.AmountTo
		}
		if fields.Description != nil {
			schedule.Description = *fields.Description
		}
		if fields.IsActive != nil {
			schedule.IsActive = *fields.IsActive
		}
		if fields.RemainingOccurrences != nil {
			schedule.RemainingOccurrences = *fields.RemainingOccurrences
		}
		if fields.EndDate != nil {
			schedule.EndDate = *fields.EndDate
			if schedule.EndDate != nil {
				end := calendar.Day(*schedule.EndDate)
				schedule.EndDate = &end
			}
		}

		if err := validateSchedule(tx, &schedule); err != nil {
			return err
		}
		if err := tx.Save(&schedule).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteSchedule removes a schedule. Movements it produced are kept.
func (s *scheduleService) DeleteSchedule(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.RecurringSchedule{}, "id = ?", id)
	if res.Error != nil {
		return storeError(res.Error, apperrors.ErrInternalServer)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrScheduleNotFound
	}
	return nil
}

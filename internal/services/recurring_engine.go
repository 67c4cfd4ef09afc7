package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"finledger/internal/calendar"
	apperrors "finledger/internal/errors"
	"finledger/internal/events"
	"finledger/internal/logger"
	"finledger/internal/models"
	"finledger/internal/recurrence"
)

// recurringEngine turns due schedules into ledger movements.
type recurringEngine struct {
	db        *gorm.DB
	schedules ScheduleServicer
	ledger    LedgerServicer
	publisher events.Publisher
	locks     *accountLocks
	log       *zap.SugaredLogger
}

// NewRecurringEngine creates a new RecurringProcessor. A nil publisher
// drops events.
func NewRecurringEngine(db *gorm.DB, schedules ScheduleServicer, ledger LedgerServicer, publisher events.Publisher) RecurringProcessor {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &recurringEngine{
		db:        db,
		schedules: schedules,
		ledger:    ledger,
		publisher: publisher,
		locks:     ledgerLocks,
		log:       logger.Named("recurring"),
	}
}

// firing is what one schedule produced on one day.
type firing struct {
	movementID  string
	deactivated bool
}

// ProcessDue fires every active schedule that is due on today. Each
// schedule commits on its own; one failure does not stop the run. Running
// twice on the same day fires nothing the second time.
func (e *recurringEngine) ProcessDue(ctx context.Context, today time.Time) (*ProcessResult, error) {
	if today.IsZero() {
		today = calendar.Today()
	}
	today = calendar.Day(today)

	result := &ProcessResult{Date: today.Format(calendar.DateLayout), Failures: []ScheduleFailure{}}

	schedules, err := e.schedules.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	for i := range schedules {
		if err := ctx.Err(); err != nil {
			e.log.Warnw("recurring run cancelled", "date", result.Date, "checked", result.Checked)
			return result, err
		}

		s := &schedules[i]
		result.Checked++

		if recurrence.Expired(s, today) {
			if err := e.deactivate(ctx, s.ID); err != nil {
				e.fail(result, s, err)
				continue
			}
			result.Deactivated++
			e.log.Infow("schedule expired", "schedule_id", s.ID)
			continue
		}

		if !recurrence.ShouldFire(s, today) || recurrence.ProcessedOn(s, today) {
			result.Skipped++
			continue
		}

		f, err := e.fire(ctx, s, today)
		if err != nil {
			e.fail(result, s, err)
			continue
		}
		if f == nil {
			// Another runner claimed it first.
			result.Skipped++
			continue
		}

		result.Fired++
		if f.deactivated {
			result.Deactivated++
		}
		e.publish(ctx, s, f, today)
	}

	e.log.Infow("recurring run finished",
		"date", result.Date,
		"checked", result.Checked,
		"fired", result.Fired,
		"deactivated", result.Deactivated,
		"skipped", result.Skipped,
		"failed", len(result.Failures),
	)
	return result, nil
}

func (e *recurringEngine) fail(result *ProcessResult, s *models.RecurringSchedule, err error) {
	e.log.Errorw("schedule failed", "schedule_id", s.ID, "kind", s.Kind, "error", err)
	result.Failures = append(result.Failures, ScheduleFailure{ScheduleID: s.ID, Error: err.Error()})
}

func (e *recurringEngine) deactivate(ctx context.Context, id string) error {
	if err := e.db.WithContext(ctx).Model(&models.RecurringSchedule{}).
		Where("id = ?", id).
		Update("is_active", false).Error; err != nil {
		return storeError(err, apperrors.ErrScheduleNotFound)
	}
	return nil
}

// fire claims the schedule for today and materializes it in one database
// transaction. It returns nil without error when the claim was lost.
func (e *recurringEngine) fire(ctx context.Context, s *models.RecurringSchedule, today time.Time) (*firing, error) {
	lockIDs := []string{s.AccountID}
	if s.ToAccountID != nil {
		lockIDs = append(lockIDs, *s.ToAccountID)
	}
	unlock := e.locks.lock(lockIDs...)
	defer unlock()

	var f *firing
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.RecurringSchedule{}).
			Where("id = ? AND is_active = ? AND (last_processed_date IS NULL OR last_processed_date <> ?)", s.ID, true, today).
			Update("last_processed_date", today)
		if claim.Error != nil {
			return storeError(claim.Error, apperrors.ErrScheduleNotFound)
		}
		if claim.RowsAffected == 0 {
			return nil
		}

		movementID, err := e.materialize(ctx, tx, s, today)
		if err != nil {
			return err
		}
		f = &firing{movementID: movementID}

		if s.RemainingOccurrences == nil {
			return nil
		}
		remaining := *s.RemainingOccurrences - 1
		updates := map[string]interface{}{"remaining_occurrences": remaining}
		if remaining <= 0 {
			updates["is_active"] = false
			f.deactivated = true
		}
		if err := tx.Model(&models.RecurringSchedule{}).Where("id = ?", s.ID).Updates(updates).Error; err != nil {
			return storeError(err, apperrors.ErrScheduleNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// materialize records the movement a schedule describes and returns the
// id of the record it created.
func (e *recurringEngine) materialize(ctx context.Context, tx *gorm.DB, s *models.RecurringSchedule, today time.Time) (string, error) {
	switch s.Kind {
	case models.ScheduleKindTransfer:
		if s.ToAccountID == nil {
			return "", invalidSchedule("transfer schedule has no destination")
		}
		description, err := rateAnnotated(tx, s)
		if err != nil {
			return "", err
		}
		res, err := e.ledger.CreateTransferWithDB(ctx, tx, CreateTransferInput{
			FromAccountID: s.AccountID,
			ToAccountID:   *s.ToAccountID,
			AmountFrom:    s.Amount,
			AmountTo:      s.AmountTo,
			Description:   description,
			Date:          today,
			IsRecurring:   true,
		})
		if err != nil {
			return "", err
		}
		return res.Transfer.ID, nil

	case models.ScheduleKindTransaction:
		m, err := e.ledger.RecordTransactionWithDB(ctx, tx, RecordTransactionInput{
			AccountID:   s.AccountID,
			CategoryID:  s.CategoryID,
			Amount:      s.Amount,
			Description: s.Description,
			Date:        today,
			IsRecurring: true,
		})
		if err != nil {
			return "", err
		}
		return m.ID(), nil
	}
	return "", invalidSchedule("unknown schedule kind %q", s.Kind)
}

// rateAnnotated appends the implied exchange rate to the description of a
// transfer between accounts of different currencies.
func rateAnnotated(tx *gorm.DB, s *models.RecurringSchedule) (string, error) {
	from, err := loadAccount(tx, s.AccountID)
	if err != nil {
		return "", err
	}
	to, err := loadAccount(tx, *s.ToAccountID)
	if err != nil {
		return "", err
	}
	if from.Currency == to.Currency || s.Amount.IsZero() {
		return s.Description, nil
	}
	rate := s.TargetAmount().Div(s.Amount).Round(6)
	return fmt.Sprintf("%s (rate: %s)", s.Description, rate.String()), nil
}

func (e *recurringEngine) publish(ctx context.Context, s *models.RecurringSchedule, f *firing, today time.Time) {
	event := events.ScheduleFired{
		ScheduleID:  s.ID,
		Kind:        string(s.Kind),
		AccountID:   s.AccountID,
		MovementID:  f.movementID,
		Amount:      s.Amount,
		Date:        today.Format(calendar.DateLayout),
		Deactivated: f.deactivated,
		FiredAt:     time.Now().UTC(),
	}
	if s.ToAccountID != nil {
		event.ToAccountID = *s.ToAccountID
	}
	if err := e.publisher.PublishScheduleFired(ctx, event); err != nil {
		e.log.Warnw("failed to publish schedule fired event", "schedule_id", s.ID, "error", err)
	}
}

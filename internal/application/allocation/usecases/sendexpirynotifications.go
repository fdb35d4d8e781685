package usecases

import (
	"context"
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/biztime"
	"allocmgr/internal/shared/logger"
)

type SendExpiryNotificationsResult struct {
	AllocationsChecked int
	NotificationsSent  int
}

// SendExpiryNotificationsUseCase walks every allocation with an end date
// and fires at most one notification stage per allocation per run, chosen
// by exact day-offset match against today. Runs are stateless; a stage
// fires only on the single calendar day its offset matches.
type SendExpiryNotificationsUseCase struct {
	allocRepo allocation.Repository
	notifier  NotificationService
	schedule  allocation.NotificationSchedule
	// now is injectable for tests; defaults to biztime.Today.
	now    func() time.Time
	logger logger.Interface
}

func NewSendExpiryNotificationsUseCase(
	allocRepo allocation.Repository,
	notifier NotificationService,
	schedule allocation.NotificationSchedule,
	logger logger.Interface,
) *SendExpiryNotificationsUseCase {
	return &SendExpiryNotificationsUseCase{
		allocRepo: allocRepo,
		notifier:  notifier,
		schedule:  schedule,
		now:       biztime.Today,
		logger:    logger,
	}
}

func (uc *SendExpiryNotificationsUseCase) Execute(ctx context.Context) (*SendExpiryNotificationsResult, error) {
	if err := uc.schedule.Validate(); err != nil {
		return nil, err
	}

	allocs, err := uc.allocRepo.ListWithEndDate(ctx)
	if err != nil {
		return nil, err
	}

	today := uc.now()
	result := &SendExpiryNotificationsResult{AllocationsChecked: len(allocs)}

	for _, a := range allocs {
		endDate := a.EndDate()
		if endDate == nil {
			continue
		}

		delta := biztime.DaysBetween(*endDate, today)
		stage, days, ok := uc.schedule.SelectStage(delta)
		if !ok {
			continue
		}

		if err := uc.notifier.SendExpiryNotification(
			a.Project().PIEmail, a.Project().Title, stage, days, *endDate); err != nil {
			uc.logger.Errorw("failed to send expiry notification",
				"allocation_id", a.ID(),
				"stage", string(stage),
				"error", err,
			)
			continue
		}
		result.NotificationsSent++
	}

	uc.logger.Infow("expiry notification run finished",
		"allocations_checked", result.AllocationsChecked,
		"notifications_sent", result.NotificationsSent,
	)
	return result, nil
}

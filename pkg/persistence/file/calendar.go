package file

import (
	"context"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
)

func (fp *Persistence) holidaysPath() string {
	return fp.path(calendarDir, "holidays.json")
}

func (fp *Persistence) HolidaysByRegion(_ context.Context, region string) ([]*models.Holiday, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	holidays, err := readCollection[*models.Holiday](fp.holidaysPath())
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Holiday, 0)

	for _, holiday := range holidays {
		if holiday.Region == region {
			matched = append(matched, holiday)
		}
	}

	return matched, nil
}

func (fp *Persistence) HolidayExists(_ context.Context, date time.Time, region string) (bool, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	holidays, err := readCollection[*models.Holiday](fp.holidaysPath())
	if err != nil {
		return false, err
	}

	for _, holiday := range holidays {
		if holiday.Region == region && sameDay(holiday.Date, date) {
			return true, nil
		}
	}

	return false, nil
}

func (fp *Persistence) SaveHoliday(_ context.Context, holiday *models.Holiday) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	holidays, err := readCollection[*models.Holiday](fp.holidaysPath())
	if err != nil {
		return err
	}

	if holiday.ID == 0 {
		holiday.ID = nextID(holidays, func(h *models.Holiday) int64 { return h.ID })
	}

	holidays = upsert(holidays, holiday, func(h *models.Holiday) int64 { return h.ID })

	return writeDocument(fp.holidaysPath(), holidays)
}

func (fp *Persistence) DeleteHoliday(_ context.Context, id int64) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	holidays, err := readCollection[*models.Holiday](fp.holidaysPath())
	if err != nil {
		return err
	}

	remaining, removed := remove(holidays, id, func(h *models.Holiday) int64 { return h.ID })
	if !removed {
		return persistence.ErrHolidayNotFound
	}

	return writeDocument(fp.holidaysPath(), remaining)
}

func (fp *Persistence) leavesPath() string {
	return fp.path(calendarDir, "leaves.json")
}

func (fp *Persistence) LeavesByUser(_ context.Context, userID string) ([]*models.Leave, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	leaves, err := readCollection[*models.Leave](fp.leavesPath())
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Leave, 0)

	for _, leave := range leaves {
		if leave.UserID == userID {
			matched = append(matched, leave)
		}
	}

	return matched, nil
}

func (fp *Persistence) SaveLeave(_ context.Context, leave *models.Leave) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	leaves, err := readCollection[*models.Leave](fp.leavesPath())
	if err != nil {
		return err
	}

	if leave.ID == 0 {
		leave.ID = nextID(leaves, func(l *models.Leave) int64 { return l.ID })
	}

	leaves = upsert(leaves, leave, func(l *models.Leave) int64 { return l.ID })

	return writeDocument(fp.leavesPath(), leaves)
}

func (fp *Persistence) DeleteLeave(_ context.Context, id int64) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	leaves, err := readCollection[*models.Leave](fp.leavesPath())
	if err != nil {
		return err
	}

	remaining, removed := remove(leaves, id, func(l *models.Leave) int64 { return l.ID })
	if !removed {
		return persistence.ErrLeaveNotFound
	}

	return writeDocument(fp.leavesPath(), remaining)
}

func remove[T any](items []T, id int64, key func(T) int64) ([]T, bool) {
	for i := range items {
		if key(items[i]) == id {
			return append(items[:i], items[i+1:]...), true
		}
	}

	return items, false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

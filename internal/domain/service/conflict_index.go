package service

import (
	"sort"

	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ConflictIndex - упорядоченный по началу снимок бронирований одной даты (Domain Service)
// Строится на каждый запрос из текущего состояния хранилища и не кэшируется.
// Поиск пересечений: O(log n + k) при непересекающемся наборе.
type ConflictIndex struct {
	date         valueobject.CalendarDay
	reservations []*entity.Reservation
	// maxEnd[i] - максимальный конец среди reservations[0..i], неубывающая последовательность
	maxEnd []valueobject.ClockTime
}

// NewConflictIndex строит индекс по бронированиям на дату, чужие даты отбрасываются
func NewConflictIndex(date valueobject.CalendarDay, reservations []*entity.Reservation) *ConflictIndex {
	sorted := make([]*entity.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r != nil && r.Date().Equal(date) {
			sorted = append(sorted, r)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartsBefore(sorted[j])
	})

	maxEnd := make([]valueobject.ClockTime, len(sorted))
	for i, r := range sorted {
		end := r.TimeRange().End()
		if i > 0 && maxEnd[i-1].After(end) {
			end = maxEnd[i-1]
		}
		maxEnd[i] = end
	}

	return &ConflictIndex{
		date:         date,
		reservations: sorted,
		maxEnd:       maxEnd,
	}
}

// Date возвращает дату индекса
func (idx *ConflictIndex) Date() valueobject.CalendarDay {
	return idx.date
}

// Len возвращает количество бронирований в индексе
func (idx *ConflictIndex) Len() int {
	return len(idx.reservations)
}

// Reservations возвращает бронирования в порядке начала
func (idx *ConflictIndex) Reservations() []*entity.Reservation {
	result := make([]*entity.Reservation, len(idx.reservations))
	copy(result, idx.reservations)
	return result
}

// FindConflicts возвращает все бронирования, пересекающиеся с candidate, по возрастанию начала.
// Бронирование с excludeID (само обновляемое) пропускается. Пустой результат - конфликта нет.
func (idx *ConflictIndex) FindConflicts(candidate valueobject.TimeRange, excludeID string) []*entity.Reservation {
	// Первый индекс, начиная с которого хоть один конец может оказаться позже candidate.start
	first := sort.Search(len(idx.maxEnd), func(i int) bool {
		return idx.maxEnd[i].After(candidate.Start())
	})

	var conflicts []*entity.Reservation
	for i := first; i < len(idx.reservations); i++ {
		r := idx.reservations[i]
		if !r.TimeRange().Start().Before(candidate.End()) {
			break
		}
		if excludeID != "" && r.ID() == excludeID {
			continue
		}
		if r.TimeRange().Overlaps(candidate) {
			conflicts = append(conflicts, r)
		}
	}

	return conflicts
}

// HasConflict сообщает, пересекается ли candidate хоть с одним бронированием
func (idx *ConflictIndex) HasConflict(candidate valueobject.TimeRange, excludeID string) bool {
	return len(idx.FindConflicts(candidate, excludeID)) > 0
}

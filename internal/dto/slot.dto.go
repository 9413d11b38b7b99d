package dto

import (
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
)

// SlotDTO is a bookable window as shown to patients.
type SlotDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type SlotsResponse struct {
	Date     string    `json:"date"`
	Slots    []SlotDTO `json:"slots"`
	Degraded bool      `json:"degraded"`
}

func Slots(slots []domain.TimeSlot) []SlotDTO {
	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotDTO{StartTime: s.Start.String(), EndTime: s.End.String()})
	}
	return out
}

// AnnotatedSlotsResponse is the diagnostic view with every candidate.
type AnnotatedSlotsResponse struct {
	Date  string            `json:"date"`
	Slots []domain.TimeSlot `json:"slots"`
}

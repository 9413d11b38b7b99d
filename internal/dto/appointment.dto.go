package dto

import (
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

// AppointmentListDTO is the compact row used by calendar listings.
type AppointmentListDTO struct {
	ID          string `json:"id"`
	PatientKey  string `json:"patient_key"`
	ServiceName string `json:"service_name,omitempty"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
}

func AppointmentList(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, AppointmentListDTO{
			ID:          ap.ID,
			PatientKey:  ap.PatientKey,
			ServiceName: ap.ServiceName,
			Date:        ap.Date.String(),
			StartTime:   ap.StartTime.String(),
			EndTime:     ap.EndTime.String(),
			Status:      ap.Status,
		})
	}
	return out
}

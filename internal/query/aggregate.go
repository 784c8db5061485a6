package query

import "github.com/jwalitptl/clinic-directory/internal/model"

// Aggregate folds joined rows into clinics. A clinic takes the position of
// its first row; services keep row order. Every clinic gets a non-nil
// Services slice.
func Aggregate(rows []ClinicRow) []*model.Clinic {
	clinics := make([]*model.Clinic, 0)
	byID := make(map[string]*model.Clinic)

	for i := range rows {
		row := &rows[i]
		clinic, ok := byID[row.ID]
		if !ok {
			clinic = &model.Clinic{
				ID:            row.ID,
				ClinicName:    row.ClinicName,
				BusinessName:  row.BusinessName,
				StreetAddress: row.StreetAddress,
				City:          row.City,
				State:         row.State,
				Country:       row.Country,
				ZipCode:       row.ZipCode,
				Latitude:      row.Latitude,
				Longitude:     row.Longitude,
				DateCreated:   row.DateCreated,
				Services:      []*model.ClinicService{},
			}
			byID[row.ID] = clinic
			clinics = append(clinics, clinic)
		}

		if !row.ServiceID.Valid {
			continue
		}
		clinic.Services = append(clinic.Services, &model.ClinicService{
			ServiceID:   row.ServiceID.String,
			ServiceName: row.ServiceName.String,
			ServiceCode: row.ServiceCode.String,
			Description: row.ServiceDescription.String,
			Price:       row.ServicePrice.Float64,
			IsActive:    row.ServiceIsActive.Bool,
		})
	}

	return clinics
}

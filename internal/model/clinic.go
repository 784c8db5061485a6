package model

import (
	"strings"
	"time"
)

// DefaultCountry is applied when a clinic is created without a country.
const DefaultCountry = "United States"

type Clinic struct {
	ID            string           `db:"id" json:"id"`
	ClinicName    string           `db:"clinic_name" json:"clinicName"`
	BusinessName  string           `db:"business_name" json:"businessName"`
	StreetAddress string           `db:"street_address" json:"streetAddress"`
	City          string           `db:"city" json:"city"`
	State         string           `db:"state" json:"state"`
	Country       string           `db:"country" json:"country"`
	ZipCode       string           `db:"zip_code" json:"zipCode"`
	Latitude      *float64         `db:"latitude" json:"latitude"`
	Longitude     *float64         `db:"longitude" json:"longitude"`
	DateCreated   time.Time        `db:"date_created" json:"dateCreated"`
	Services      []*ClinicService `db:"-" json:"services"`
}

// ClinicService is a catalog service as offered by one clinic, with the
// clinic's own price and availability.
type ClinicService struct {
	ServiceID   string  `json:"serviceId"`
	ServiceName string  `json:"serviceName"`
	ServiceCode string  `json:"serviceCode"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	IsActive    bool    `json:"isActive"`
}

// NewClinic is the create-clinic request body.
type NewClinic struct {
	ClinicName    string             `json:"clinicName" validate:"notblank"`
	BusinessName  string             `json:"businessName" validate:"notblank"`
	StreetAddress string             `json:"streetAddress" validate:"notblank"`
	City          string             `json:"city" validate:"notblank"`
	State         string             `json:"state" validate:"notblank"`
	Country       string             `json:"country"`
	ZipCode       string             `json:"zipCode" validate:"notblank,zipcode"`
	Latitude      *float64           `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64           `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Services      []ServiceSelection `json:"services" validate:"min=1,unique=ServiceID,dive"`
}

// ServiceSelection picks a catalog service for a new clinic. A nil Price
// falls back to the service's average price; a nil IsActive means offered.
type ServiceSelection struct {
	ServiceID string   `json:"serviceId" validate:"notblank"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	IsActive  *bool    `json:"isActive,omitempty"`
}

// Normalize trims every text field and fills in the default country.
func (n *NewClinic) Normalize() {
	n.ClinicName = strings.TrimSpace(n.ClinicName)
	n.BusinessName = strings.TrimSpace(n.BusinessName)
	n.StreetAddress = strings.TrimSpace(n.StreetAddress)
	n.City = strings.TrimSpace(n.City)
	n.State = strings.TrimSpace(n.State)
	n.Country = strings.TrimSpace(n.Country)
	n.ZipCode = strings.TrimSpace(n.ZipCode)
	if n.Country == "" {
		n.Country = DefaultCountry
	}
	for i := range n.Services {
		n.Services[i].ServiceID = strings.TrimSpace(n.Services[i].ServiceID)
	}
}

// SearchFilters narrows a clinic listing. Every field is optional and the
// set ones are AND-combined.
type SearchFilters struct {
	City       string   `json:"city,omitempty" form:"city"`
	State      string   `json:"state,omitempty" form:"state"`
	SearchTerm string   `json:"searchTerm,omitempty" form:"searchTerm"`
	ServiceIDs []string `json:"services,omitempty" form:"services"`
}

// IsEmpty reports whether no filter is set after trimming.
func (f SearchFilters) IsEmpty() bool {
	if strings.TrimSpace(f.City) != "" || strings.TrimSpace(f.State) != "" || strings.TrimSpace(f.SearchTerm) != "" {
		return false
	}
	for _, id := range f.ServiceIDs {
		if strings.TrimSpace(id) != "" {
			return false
		}
	}
	return true
}

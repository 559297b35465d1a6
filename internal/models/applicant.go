package models

import "time"

type Applicant struct {
	ID                  int64     `json:"id"`
	LastName            string    `json:"last_name"`
	FirstName           string    `json:"first_name"`
	MiddleName          string    `json:"middle_name"`
	MedbookNumber       string    `json:"medbook_number"`
	SnilsNumber         string    `json:"snils_number"`
	PassportNumber      string    `json:"passport_number"`
	BirthDate           time.Time `json:"birth_date"`
	RegistrationAddress string    `json:"registration_address"`
	ResidenceAddress    string    `json:"residence_address"`
	PhoneNumber         string    `json:"phone_number"`
	Email               string    `json:"email"`
	ContingentID        int64     `json:"contingent_id"`
	WorkFieldID         int64     `json:"work_field_id"`
	ApplicantTypeID     int64     `json:"applicant_type_id"`
	AttestationTypeID   int64     `json:"attestation_type_id"`
	CreatedAt           time.Time `json:"created_at"`
}

// ApplicantSearch carries the optional search filters. Empty fields are
// ignored; at least one must be set.
type ApplicantSearch struct {
	LastName       string `json:"last_name"`
	MedbookNumber  string `json:"medbook_number"`
	SnilsNumber    string `json:"snils_number"`
	PassportNumber string `json:"passport_number"`
}

func (s ApplicantSearch) Empty() bool {
	return s.LastName == "" && s.MedbookNumber == "" && s.SnilsNumber == "" && s.PassportNumber == ""
}

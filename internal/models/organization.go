package models

import "time"

type Organization struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	INN            string `json:"inn"`
	Address        string `json:"address"`
	PhoneNumber    string `json:"phone_number"`
	Email          string `json:"email"`
	IsActive       bool   `json:"is_active"`
	AdditionalInfo string `json:"additional_info"`
}

type Contract struct {
	ID             int64      `json:"id"`
	Number         string     `json:"number"`
	ContractDate   time.Time  `json:"contract_date"`
	Name           string     `json:"name"`
	ExpirationDate *time.Time `json:"expiration_date"`
	IsExtended     bool       `json:"is_extended"`
	OrganizationID int64      `json:"organization_id"`
	AdditionalInfo string     `json:"additional_info"`
}

type Visit struct {
	ID             int64     `json:"id"`
	ApplicantID    int64     `json:"applicant_id"`
	VisitDate      time.Time `json:"visit_date"`
	ContractID     *int64    `json:"contract_id"`
	AdditionalInfo string    `json:"additional_info"`
	CreatedAt      time.Time `json:"created_at"`
}

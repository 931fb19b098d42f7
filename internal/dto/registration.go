package dto

import "github.com/noah-isme/youth-sports-api/internal/models"

// RegistrationRequest is the public registration form: one parent, one or more students.
type RegistrationRequest struct {
	Parent   RegistrationParent    `json:"parent" validate:"required"`
	Students []RegistrationStudent `json:"students" validate:"required,min=1,max=10,dive"`
}

// RegistrationParent carries parent contact details.
type RegistrationParent struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=32"`
}

// RegistrationStudent carries one student and the teams requested for them.
type RegistrationStudent struct {
	FirstName             string   `json:"firstName" validate:"required,max=100"`
	LastName              string   `json:"lastName" validate:"required,max=100"`
	DateOfBirth           string   `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Grade                 string   `json:"grade" validate:"omitempty,max=16"`
	EmergencyContactName  string   `json:"emergencyContactName" validate:"required,max=100"`
	EmergencyContactPhone string   `json:"emergencyContactPhone" validate:"required,min=7,max=32"`
	TeamIDs               []string `json:"teamIds" validate:"required,min=1,dive,required,uuid"`
}

// RegistrationResponse summarises what was created.
type RegistrationResponse struct {
	Parent      models.Parent       `json:"parent"`
	Students    []models.Student    `json:"students"`
	Enrollments []models.Enrollment `json:"enrollments"`
	Payments    []models.Payment    `json:"payments"`
	TotalCents  int64               `json:"totalCents"`
}

// UpdateEnrollmentStatusRequest withdraws or reinstates an enrollment.
type UpdateEnrollmentStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

package dto

type CreateTokenRequest struct {
	PatientName string `json:"patientName"`
	PhoneNumber string `json:"phoneNumber"`
	IsVIP       *bool  `json:"isVIP"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type SetVIPRequest struct {
	IsVIP *bool `json:"isVIP"`
}

type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

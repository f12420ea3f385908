package models

// TimeLayout is the created_at format: UTC, second precision, Z suffix.
const TimeLayout = "2006-01-02T15:04:05Z"

// Lead is one accepted submission. It is never updated or deleted once saved.
type Lead struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	CreatedAt string
}

// Attachment is a caller-supplied file forwarded by mail only.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	B64         string `json:"b64"`
}

// Contact is a validated generic contact submission.
type Contact struct {
	Name    string `validate:"required,max=120"`
	Email   string `validate:"required,looseemail,max=200"`
	Message string `validate:"required,max=5000"`
}

// Inquiry is a validated open-access inquiry.
type Inquiry struct {
	Name           string `validate:"required,max=120"`
	Email          string `validate:"required,looseemail,max=200"`
	Company        string `validate:"required,max=200"`
	Phone          string `validate:"max=200"`
	SanctionedLoad string `validate:"required,max=200"`
	MonthlyKWh     string `validate:"required,max=200"`
	Callback       bool
	EBBill         *Attachment
}

package mail

import (
	"fmt"
	"strings"

	"github.com/znz-systems/leadform/internal/models"
)

// ContactSubject is the subject of a generic contact notification.
func ContactSubject(name string) string {
	return fmt.Sprintf("New website inquiry from %s", name)
}

// ContactNotificationBody returns the plain-text body for a contact submission.
func ContactNotificationBody(name, email, message string) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\n\n%s\n", name, email, message)
}

// InquirySummary is the message stored with an open-access inquiry lead.
func InquirySummary(q models.Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", q.Company)
	fmt.Fprintf(&b, "Phone: %s\n", orDash(q.Phone))
	fmt.Fprintf(&b, "Sanctioned load: %s\n", q.SanctionedLoad)
	fmt.Fprintf(&b, "Monthly consumption (kWh): %s\n", q.MonthlyKWh)
	fmt.Fprintf(&b, "Callback requested: %s", yesNo(q.Callback))
	return b.String()
}

// InquirySubject is the subject of an open-access inquiry notification.
func InquirySubject(q models.Inquiry, leadID int64) string {
	return fmt.Sprintf("New OA inquiry #%d from %s (%s)", leadID, q.Name, q.Company)
}

// InquiryNotificationBody returns the plain-text body for an inquiry,
// including the lead id and save time.
func InquiryNotificationBody(q models.Inquiry, lead *models.Lead) string {
	var b strings.Builder
	b.WriteString("New open access inquiry\n\n")
	fmt.Fprintf(&b, "Lead ID: %d\n", lead.ID)
	fmt.Fprintf(&b, "Received: %s\n\n", lead.CreatedAt)
	fmt.Fprintf(&b, "Name: %s\n", q.Name)
	fmt.Fprintf(&b, "Email: %s\n", q.Email)
	b.WriteString(InquirySummary(q))
	b.WriteString("\n")
	if q.EBBill != nil {
		fmt.Fprintf(&b, "EB bill: attached (%s)\n", orDash(q.EBBill.Filename))
	} else {
		b.WriteString("EB bill: not provided\n")
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

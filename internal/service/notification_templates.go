package service

import (
	"strings"

	"github.com/clae-hq/admissions-api/internal/models"
)

// NotificationTemplate is a canned parent-facing message tied to a lifecycle
// status. Placeholders are substituted from the application at send time.
type NotificationTemplate struct {
	ID      string                   `json:"id"`
	Trigger models.ApplicationStatus `json:"trigger"`
	Name    string                   `json:"name"`
	Channel string                   `json:"type"`
	Subject string                   `json:"subject"`
	Content string                   `json:"content"`
	SMS     string                   `json:"sms"`
}

var notificationTemplates = []NotificationTemplate{
	{
		ID:      "received",
		Trigger: models.StatusWaiting,
		Name:    "Application Received",
		Channel: "Both",
		Subject: "Safe Arrival: [Student Name]'s Enrollment Protocol",
		Content: "Greetings [Parent Name],\n\nWe have successfully received the enrollment application for [Student Name] (Grade [Grade]).\n\nYour unique tracking code is: [Tracking Code].\n\nYou can monitor the status of this protocol at any time via our secure portal.\n\nInstitutional Regards,\nRiverside High School Admissions",
		SMS:     "Clae: Application received for [Student Name]. Code: [Tracking Code]",
	},
	{
		ID:      "review",
		Trigger: models.StatusUnderReview,
		Name:    "Under Review",
		Channel: "Email",
		Subject: "Protocol Update: [Student Name] - Under Evaluation",
		Content: "Dear [Parent Name],\n\nThis is to inform you that [Student Name]'s enrollment application is now under official review by the Registrar's Office.\n\nNo further action is required at this time.\n\nInstitutional Regards,\nRiverside High School",
		SMS:     "Clae: [Student Name]'s application is now under review.",
	},
	{
		ID:      "approved",
		Trigger: models.StatusApproved,
		Name:    "Admission Approved",
		Channel: "Both",
		Subject: "Notice of Acceptance: [Student Name]",
		Content: "Congratulations [Parent Name]!\n\nWe are pleased to inform you that [Student Name]'s application for Grade [Grade] has been APPROVED.\n\nPlease log in to the portal with your tracking code ([Tracking Code]) to complete the final registration steps.\n\nWelcome to Riverside High.\n\nInstitutional Regards,\nOffice of Enrollment",
		SMS:     "Congratulations! [Student Name] has been approved for admission.",
	},
	{
		ID:      "rejected",
		Trigger: models.StatusRejected,
		Name:    "Admission Declined",
		Channel: "Email",
		Subject: "Enrollment Update: [Student Name]",
		Content: "Dear [Parent Name],\n\nAfter careful consideration, we regret to inform you that we are unable to offer [Student Name] admission to Riverside High School for the upcoming term.\n\nWe wish you the best in your academic pursuits.\n\nInstitutional Regards,\nOffice of Enrollment",
		SMS:     "Clae: Update regarding [Student Name]'s application. Please check your email.",
	},
	{
		ID:      "on_hold",
		Trigger: models.StatusOnHold,
		Name:    "Application On Hold",
		Channel: "Both",
		Subject: "Status Update: [Student Name] - On Hold",
		Content: "Dear [Parent Name],\n\nYour application for [Student Name] has been placed on hold pending further information or availability.\n\nWe will contact you as soon as a decision is made.\n\nInstitutional Regards,\nRiverside High School",
		SMS:     "Clae: [Student Name]'s application is currently on hold.",
	},
}

// Templates returns the full catalogue for staff preview screens.
func Templates() []NotificationTemplate {
	out := make([]NotificationTemplate, len(notificationTemplates))
	copy(out, notificationTemplates)
	return out
}

// TemplateForStatus resolves the template that fires for a lifecycle status.
func TemplateForStatus(status models.ApplicationStatus) (NotificationTemplate, bool) {
	for _, t := range notificationTemplates {
		if t.Trigger == status {
			return t, true
		}
	}
	return NotificationTemplate{}, false
}

// RenderTemplate substitutes application fields into the template placeholders.
func RenderTemplate(t NotificationTemplate, app *models.Application) (subject, body string) {
	r := strings.NewReplacer(
		"[Student Name]", app.StudentName,
		"[Parent Name]", app.ParentName,
		"[Grade]", app.StudentGrade,
		"[Tracking Code]", app.TrackingCode,
	)
	return r.Replace(t.Subject), r.Replace(t.Content)
}

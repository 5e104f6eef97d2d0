package models

import (
	"strings"
	"time"
)

// AuditAction constants for application audit trail entries. Status updates
// use the STATUS_UPDATE_<STATUS> form built by StatusUpdateAction.
const (
	AuditActionNoteUpdate        = "INTERNAL_NOTE_UPDATE"
	AuditActionCommunicationSent = "COMMUNICATION_SENT"

	auditStatusUpdatePrefix = "STATUS_UPDATE_"
)

// StatusUpdateAction returns the audit action recorded for a status change.
func StatusUpdateAction(status ApplicationStatus) string {
	return auditStatusUpdatePrefix + strings.ToUpper(string(status))
}

// AuditLog is an immutable append-only record of one action taken against one
// application by one admin. Never updated or deleted.
type AuditLog struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	AdminID       string    `db:"admin_id" json:"admin_id"`
	Action        string    `db:"action" json:"action"`
	Details       string    `db:"details" json:"details"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	AdminName string `db:"admin_name" json:"admin_name,omitempty"`
}

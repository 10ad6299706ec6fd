package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeSyncContact      = "contact:sync"
	TypeSendNotification = "notification:send"
	TypeAuditPool        = "lmids:audit"
)

type SyncContactTaskPayload struct {
	Email string
	Name  string
}

func NewSyncContactTask(email, name string) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncContactTaskPayload{Email: email, Name: name})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSyncContact, payload), nil
}

type SendNotificationTaskPayload struct {
	RecipientEmail   string
	RecipientName    string
	NotificationType string
	Language         string
	TemplateData     map[string]any
}

func NewSendNotificationTask(p SendNotificationTaskPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSendNotification, payload), nil
}

func NewAuditPoolTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeAuditPool, nil), nil
}

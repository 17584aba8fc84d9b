package ws

import (
	"encoding/json"
	"errors"
	"strings"

	"pod-service/internal/models"
)

var (
	errMalformedFrame = errors.New("malformed frame")
	errUnknownFrame   = errors.New("unknown frame type")
)

// frame is one of joinPodFrame, leavePodFrame or newMessageFrame.
type frame interface {
	eventType() models.EventType
}

type joinPodFrame struct {
	UserID string
	PodID  string
}

type leavePodFrame struct{}

type newMessageFrame struct {
	MessageID int64
}

func (joinPodFrame) eventType() models.EventType    { return models.EventJoinPod }
func (leavePodFrame) eventType() models.EventType   { return models.EventLeavePod }
func (newMessageFrame) eventType() models.EventType { return models.EventNewMessage }

type rawFrame struct {
	Type      models.EventType `json:"type"`
	UserID    string           `json:"userId"`
	PodID     string           `json:"podId"`
	MessageID int64            `json:"messageId"`
	Message   *struct {
		ID int64 `json:"id"`
	} `json:"message"`
}

func parseFrame(data []byte) (frame, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errMalformedFrame
	}
	switch raw.Type {
	case models.EventJoinPod:
		userID := strings.TrimSpace(raw.UserID)
		podID := strings.TrimSpace(raw.PodID)
		if userID == "" || podID == "" {
			return nil, errMalformedFrame
		}
		return joinPodFrame{UserID: userID, PodID: podID}, nil
	case models.EventLeavePod:
		return leavePodFrame{}, nil
	case models.EventNewMessage:
		id := raw.MessageID
		if raw.Message != nil && raw.Message.ID != 0 {
			id = raw.Message.ID
		}
		if id <= 0 {
			return nil, errMalformedFrame
		}
		return newMessageFrame{MessageID: id}, nil
	case "":
		return nil, errMalformedFrame
	default:
		return nil, errUnknownFrame
	}
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/services"
	"github.com/lettora/rentals-service/internal/utils"
)

type MessagesController struct {
	msgService *services.MessageService
}

func NewMessagesController(msgService *services.MessageService) *MessagesController {
	return &MessagesController{msgService: msgService}
}

// ----------------------------------------------------------------
// POST /api/v1/messages/threads
// ----------------------------------------------------------------
func (c *MessagesController) StartThreadHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body dtos.StartThreadRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	thread, err := c.msgService.StartThread(r.Context(), tenantID, body.LandlordID, body.PropertyID)
	if err != nil {
		c.respondMessageError(w, err, "Failed to start thread")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ThreadEnvelope{Thread: *thread})
}

// ----------------------------------------------------------------
// GET /api/v1/messages/threads
// ----------------------------------------------------------------
func (c *MessagesController) ListThreadsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	threads, err := c.msgService.ListThreads(r.Context(), userID)
	if err != nil {
		c.respondMessageError(w, err, "Failed to list threads")
		return
	}
	resp := dtos.ThreadListEnvelope{}
	for _, t := range threads {
		resp.Threads = append(resp.Threads, *t)
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/messages/threads/{id}
// ----------------------------------------------------------------
func (c *MessagesController) GetThreadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	threadID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	thread, err := c.msgService.GetThread(r.Context(), userID, threadID)
	if err != nil {
		c.respondMessageError(w, err, "Failed to fetch thread")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ThreadEnvelope{Thread: *thread})
}

// ----------------------------------------------------------------
// POST /api/v1/messages/threads/{id}/messages
// ----------------------------------------------------------------
func (c *MessagesController) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	threadID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body dtos.SendMessageRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	msg, err := c.msgService.SendMessage(r.Context(), userID, threadID, body.Body)
	if err != nil {
		c.respondMessageError(w, err, "Failed to send message")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.MessageEnvelope{Message: *msg})
}

// ----------------------------------------------------------------
// GET /api/v1/messages/threads/{id}/messages
// ----------------------------------------------------------------
func (c *MessagesController) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	threadID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	msgs, err := c.msgService.ListMessages(r.Context(), userID, threadID)
	if err != nil {
		c.respondMessageError(w, err, "Failed to list messages")
		return
	}
	resp := dtos.MessageListEnvelope{}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, *m)
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *MessagesController) respondMessageError(w http.ResponseWriter, err error, publicMsg string) {
	switch {
	case errors.Is(err, utils.ErrNotFoundThread):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Thread not found", nil, err,
		)
	case errors.Is(err, utils.ErrPropertyNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Property not found", nil, err,
		)
	default:
		utils.Logger.WithError(err).Error(publicMsg)
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			publicMsg, nil, err,
		)
	}
}

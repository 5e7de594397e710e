package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/util"
)

type Instances struct {
	Response APIResponse
	logger   *util.ServiceLogger
	service  domain.InstanceService
}

func (h *Instances) Init(service domain.InstanceService, logger *util.ServiceLogger) {
	h.service = service
	h.logger = logger
}

// GetInstanceHandler serves GET /api/instances/{identifier}, resolving the
// identifier as an instance ID or an IP address.
func (h *Instances) GetInstanceHandler(w http.ResponseWriter, r *http.Request) {

	identifier := mux.Vars(r)["identifier"]

	instance, err := h.service.ResolveInstance(r.Context(), identifier)
	if err != nil {
		h.writeLookupError(w, identifier, err)
		return
	}

	h.Response.WriteResultResponse(w, instance)
}

type protectionRequest struct {
	Enabled *bool `json:"enabled"`
}

type protectionValue struct {
	InstanceID           string `json:"instance_id"`
	TerminationProtected bool   `json:"termination_protected"`
}

// SetProtectionHandler serves PUT /api/instances/{identifier}/protection
// with body {"enabled": true|false}.
func (h *Instances) SetProtectionHandler(w http.ResponseWriter, r *http.Request) {

	identifier := mux.Vars(r)["identifier"]

	var reqBody protectionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil || reqBody.Enabled == nil {
		h.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while unmarshalling JSON Body. Err -", err)
		h.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidRequestBody, http.StatusBadRequest)
		return
	}

	instance, err := h.service.ResolveInstance(r.Context(), identifier)
	if err != nil {
		h.writeLookupError(w, identifier, err)
		return
	}

	if err := h.service.SetTerminationProtection(r.Context(), instance.ID, *reqBody.Enabled); err != nil {
		h.writeLookupError(w, identifier, err)
		return
	}

	h.Response.WriteResultResponse(w, protectionValue{
		InstanceID:           instance.ID,
		TerminationProtected: *reqBody.Enabled,
	})
}

func (h *Instances) writeLookupError(w http.ResponseWriter, identifier string, err error) {
	switch {
	case errors.Is(err, domain.ErrInstanceNotFound):
		h.logger.LogEvent(util.LOG_LEVEL_WARN, "Instance not found. identifier -", identifier)
		h.Response.WriteErrorResponseWithStatusCode(w, domain.ErrInstanceNotFound, http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		h.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled during instance lookup")
		h.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
	default:
		h.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while instance operation. Err -", err)
		h.Response.WriteErrorResponseWithStatusCode(w, ErrProviderUnavailable, http.StatusBadGateway)
	}
}

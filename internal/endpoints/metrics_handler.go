package endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/util"
)

const defaultQueryWindow = time.Hour

type Metrics struct {
	Response  APIResponse
	logger    *util.ServiceLogger
	querier   domain.MetricQuerier
	instances domain.InstanceService
}

func (m *Metrics) Init(querier domain.MetricQuerier, instances domain.InstanceService, logger *util.ServiceLogger) {
	m.querier = querier
	m.instances = instances
	m.logger = logger
}

// cpuMetricsValue is the response payload: the point series plus the
// instance metadata resolved alongside it.
type cpuMetricsValue struct {
	Instance         domain.Instance    `json:"instance"`
	Points           []domain.DataPoint `json:"points"`
	AdjustedInterval string             `json:"adjusted_interval,omitempty"`
}

// GetCPUMetricsHandler serves
// GET /api/instances/{identifier}/metrics/cpu?start=&end=&interval=
// with start/end as unix seconds (default: the last hour) and identifier
// being an instance ID or one of its IP addresses.
func (m *Metrics) GetCPUMetricsHandler(w http.ResponseWriter, r *http.Request) {

	identifier := mux.Vars(r)["identifier"]
	query := r.URL.Query()

	interval := query.Get("interval")
	if interval == "" {
		interval = "5m"
	}
	if !domain.KnownInterval(interval) {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Unknown interval key. interval -", interval)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidInterval, http.StatusBadRequest)
		return
	}

	endTime := time.Now().Unix()
	if raw := query.Get("end"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While parsing end from URL. Err -", err)
			m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
			return
		}
		endTime = parsed
	}

	startTime := endTime - int64(defaultQueryWindow/time.Second)
	if raw := query.Get("start"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While parsing start from URL. Err -", err)
			m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
			return
		}
		startTime = parsed
	}

	if startTime >= endTime {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Given start is not before end. start -", startTime, " end -", endTime)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidTimeRange, http.StatusBadRequest)
		return
	}

	instance, err := m.instances.ResolveInstance(r.Context(), identifier)
	if err != nil {
		m.writeLookupError(w, identifier, err)
		return
	}

	result, err := m.querier.GetCPUMetrics(r.Context(), instance.ID,
		time.Unix(startTime, 0).UTC(), time.Unix(endTime, 0).UTC(), interval)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			m.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled during metric query")
			m.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
		case errors.Is(err, domain.ErrRateLimited):
			m.logger.LogEvent(util.LOG_LEVEL_WARN, "Provider rate limit exhausted. instanceID -", instance.ID, "err -", err)
			m.Response.WriteErrorResponseWithStatusCode(w, ErrProviderRateLimited, http.StatusTooManyRequests)
		default:
			m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while GetCPUMetrics(). Err -", err)
			m.Response.WriteErrorResponseWithStatusCode(w, ErrProviderUnavailable, http.StatusBadGateway)
		}
		return
	}

	m.Response.WriteResultResponse(w, cpuMetricsValue{
		Instance:         instance,
		Points:           result.Points,
		AdjustedInterval: result.AdjustedInterval,
	})
}

func (m *Metrics) writeLookupError(w http.ResponseWriter, identifier string, err error) {
	switch {
	case errors.Is(err, domain.ErrInstanceNotFound):
		m.logger.LogEvent(util.LOG_LEVEL_WARN, "Instance not found. identifier -", identifier)
		m.Response.WriteErrorResponseWithStatusCode(w, domain.ErrInstanceNotFound, http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		m.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled during instance lookup")
		m.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
	default:
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while ResolveInstance(). Err -", err)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrProviderUnavailable, http.StatusBadGateway)
	}
}

package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/severity"
)

// Catalog scenario names. Each name doubles as the emitted event category.
const (
	NameUserActivity = "user-activity"
	NameHTTP         = "http"
	NameDatabase     = "database"
	NameSecurity     = "security"
	NamePerformance  = "performance"
	NameBusiness     = "business"
	NameWorker       = "worker"
	NameNotification = "notification"
	NameAppError     = "app-error"
	NameAudit        = "audit"
)

// DefaultRegistry builds the full scenario catalog. Outcome-dependent
// levels are derived through the supplied classifier; the remaining
// categories carry fixed levels by convention.
func DefaultRegistry(classifier *severity.Classifier) (*Registry, error) {
	if classifier == nil {
		return nil, fmt.Errorf("catalog requires a classifier")
	}

	reg := NewRegistry()
	catalog := []Scenario{
		NewFunc(NameUserActivity, userActivity),
		NewFunc(NameHTTP, httpRequest(classifier)),
		NewFunc(NameDatabase, databaseQuery(classifier)),
		NewFunc(NameSecurity, securityEvent),
		NewFunc(NamePerformance, performanceSample),
		NewFunc(NameBusiness, businessTransaction(classifier)),
		NewFunc(NameWorker, workerRun(classifier)),
		NewFunc(NameNotification, notificationDelivery),
		NewFunc(NameAppError, applicationError(classifier)),
		NewFunc(NameAudit, auditTrail),
	}
	for _, s := range catalog {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func userActivity(r *rand.Rand) observability.Event {
	action := pick(r, userActions)
	return observability.Event{
		Timestamp: time.Now(),
		Level:     observability.LevelInfo,
		Message:   fmt.Sprintf("user %s", action),
		Type:      NameUserActivity,
		Attributes: map[string]interface{}{
			"userId":    pick(r, userIDs),
			"action":    action,
			"page":      pick(r, pages),
			"region":    pick(r, regions),
			"device":    pick(r, devices),
			"sessionId": uuid.NewString(),
		},
	}
}

func httpRequest(classifier *severity.Classifier) func(r *rand.Rand) observability.Event {
	return func(r *rand.Rand) observability.Event {
		status := pick(r, statusCodes)
		duration := time.Duration(between(r, 5, 1500)) * time.Millisecond
		return observability.Event{
			Timestamp: time.Now(),
			Level:     classifier.Classify(severity.Signal{StatusCode: status, Duration: duration}),
			Message:   fmt.Sprintf("%s %s %d", pick(r, httpMethods), pick(r, apiEndpoints), status),
			Type:      NameHTTP,
			Attributes: map[string]interface{}{
				"method":     pick(r, httpMethods),
				"endpoint":   pick(r, apiEndpoints),
				"statusCode": status,
				"durationMs": duration.Milliseconds(),
				"ip":         pick(r, ipAddresses),
				"service":    pick(r, services),
			},
		}
	}
}

func databaseQuery(classifier *severity.Classifier) func(r *rand.Rand) observability.Event {
	return func(r *rand.Rand) observability.Event {
		op := pick(r, dbOperations)
		table := pick(r, dbTables)
		duration := time.Duration(between(r, 2, 600)) * time.Millisecond
		outcome := "success"
		if r.Intn(25) == 0 {
			outcome = "failed"
		}
		return observability.Event{
			Timestamp: time.Now(),
			Level: classifier.Classify(severity.Signal{
				Outcome:  outcome,
				Duration: duration,
				Category: severity.CategoryDatabase,
			}),
			Message: fmt.Sprintf("%s on %s", op, table),
			Type:    NameDatabase,
			Attributes: map[string]interface{}{
				"operation":    op,
				"table":        table,
				"durationMs":   duration.Milliseconds(),
				"rowsAffected": between(r, 0, 250),
				"outcome":      outcome,
			},
		}
	}
}

func securityEvent(r *rand.Rand) observability.Event {
	kind := pick(r, securityEvents)
	return observability.Event{
		Timestamp: time.Now(),
		Level:     observability.LevelWarn,
		Message:   fmt.Sprintf("security event: %s", kind),
		Type:      NameSecurity,
		Attributes: map[string]interface{}{
			"event":    kind,
			"userId":   pick(r, userIDs),
			"ip":       pick(r, ipAddresses),
			"region":   pick(r, regions),
			"attempts": between(r, 1, 6),
		},
	}
}

func performanceSample(r *rand.Rand) observability.Event {
	metric := pick(r, resourceMetrics)
	value := between(r, 20, 99)
	threshold := 85
	level := observability.LevelInfo
	message := fmt.Sprintf("%s utilisation sampled", metric)
	if value > threshold {
		level = observability.LevelWarn
		message = fmt.Sprintf("%s utilisation above threshold", metric)
	}
	return observability.Event{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Type:      NamePerformance,
		Attributes: map[string]interface{}{
			"metric":    metric,
			"value":     value,
			"unit":      "percent",
			"threshold": threshold,
			"service":   pick(r, services),
		},
	}
}

func businessTransaction(classifier *severity.Classifier) func(r *rand.Rand) observability.Event {
	return func(r *rand.Rand) observability.Event {
		outcome := pick(r, orderOutcomes)
		amount := amountBetween(r, 5, 500)
		return observability.Event{
			Timestamp: time.Now(),
			Level:     classifier.Classify(severity.Signal{Outcome: outcome}),
			Message:   fmt.Sprintf("order %s", outcome),
			Type:      NameBusiness,
			Attributes: map[string]interface{}{
				"orderId":       uuid.NewString(),
				"userId":        pick(r, userIDs),
				"amount":        amount,
				"currency":      pick(r, currencies),
				"paymentMethod": pick(r, paymentMethods),
				"items":         between(r, 1, 8),
				"outcome":       outcome,
			},
		}
	}
}

func workerRun(classifier *severity.Classifier) func(r *rand.Rand) observability.Event {
	return func(r *rand.Rand) observability.Event {
		job := pick(r, workerJobs)
		outcome := pick(r, workerOutcomes)
		duration := time.Duration(between(r, 50, 5000)) * time.Millisecond
		return observability.Event{
			Timestamp: time.Now(),
			Level:     classifier.Classify(severity.Signal{Outcome: outcome}),
			Message:   fmt.Sprintf("background job %s %s", job, outcome),
			Type:      NameWorker,
			Attributes: map[string]interface{}{
				"job":        job,
				"queue":      pick(r, workerQueues),
				"durationMs": duration.Milliseconds(),
				"outcome":    outcome,
				"attempt":    between(r, 1, 3),
			},
		}
	}
}

func notificationDelivery(r *rand.Rand) observability.Event {
	channel := pick(r, notificationChannels)
	delivered := r.Intn(10) != 0
	level := observability.LevelInfo
	message := fmt.Sprintf("notification sent via %s", channel)
	if !delivered {
		level = observability.LevelWarn
		message = fmt.Sprintf("notification via %s deferred for retry", channel)
	}
	return observability.Event{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Type:      NameNotification,
		Attributes: map[string]interface{}{
			"channel":   channel,
			"template":  pick(r, notificationTemplates),
			"recipient": pick(r, userIDs),
			"delivered": delivered,
		},
	}
}

func applicationError(classifier *severity.Classifier) func(r *rand.Rand) observability.Event {
	return func(r *rand.Rand) observability.Event {
		msg := pick(r, errorMessages)
		return observability.Event{
			Timestamp: time.Now(),
			Level:     classifier.Classify(severity.Signal{Outcome: "failed"}),
			Message:   msg,
			Type:      NameAppError,
			Attributes: map[string]interface{}{
				"errorCode": pick(r, errorCodes),
				"service":   pick(r, services),
				"region":    pick(r, regions),
				"requestId": uuid.NewString(),
			},
		}
	}
}

func auditTrail(r *rand.Rand) observability.Event {
	action := pick(r, auditActions)
	resource := pick(r, auditResources)
	return observability.Event{
		Timestamp: time.Now(),
		Level:     observability.LevelInfo,
		Message:   fmt.Sprintf("%s %s", action, resource),
		Type:      NameAudit,
		Attributes: map[string]interface{}{
			"actor":      pick(r, userIDs),
			"action":     action,
			"resource":   resource,
			"resourceId": uuid.NewString(),
			"region":     pick(r, regions),
		},
	}
}

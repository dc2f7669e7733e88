package scenario

import "math/rand"

// Shared random-domain tables. These are read-only after package
// initialisation and may be used concurrently without synchronisation.

var userIDs = []string{
	"user-1001", "user-1002", "user-1003", "user-1004", "user-1005",
	"user-1006", "user-1007", "user-1008", "user-1009", "user-1010",
}

var userActions = []string{"login", "logout", "view-page", "click-button", "search", "update-profile"}

var pages = []string{"/", "/home", "/products", "/cart", "/checkout", "/account", "/orders", "/support"}

var regions = []string{"us-east-1", "us-west-2", "eu-west-1", "eu-central-1", "ap-south-1", "ap-northeast-1"}

var devices = []string{"desktop", "mobile", "tablet"}

var services = []string{
	"auth-service", "user-service", "order-service", "payment-service",
	"inventory-service", "notification-service", "search-service", "gateway",
}

var httpMethods = []string{"GET", "GET", "GET", "POST", "POST", "PUT", "PATCH", "DELETE"}

var apiEndpoints = []string{
	"/api/users", "/api/users/:id", "/api/orders", "/api/orders/:id",
	"/api/products", "/api/cart", "/api/checkout", "/api/search",
}

// statusCodes is intentionally weighted towards success so synthetic
// traffic resembles a healthy service with occasional failures.
var statusCodes = []int{
	200, 200, 200, 200, 200, 200, 201, 201, 204,
	301, 400, 401, 403, 404, 409, 429, 500, 502, 503,
}

var dbOperations = []string{"SELECT", "SELECT", "SELECT", "INSERT", "UPDATE", "DELETE"}

var dbTables = []string{"users", "orders", "products", "payments", "sessions", "inventory", "audit_log"}

var securityEvents = []string{
	"failed-login", "permission-denied", "token-expired",
	"suspicious-ip", "rate-limit-exceeded", "password-reset-requested",
}

var ipAddresses = []string{
	"203.0.113.10", "203.0.113.57", "198.51.100.23", "198.51.100.88",
	"192.0.2.14", "192.0.2.201", "203.0.113.199",
}

var resourceMetrics = []string{"cpu", "memory", "disk", "latency"}

var paymentMethods = []string{"credit-card", "debit-card", "paypal", "wallet", "bank-transfer"}

var orderOutcomes = []string{
	"completed", "completed", "completed", "completed", "completed",
	"completed", "completed", "refunded", "failed",
}

var currencies = []string{"USD", "EUR", "GBP", "INR"}

var workerJobs = []string{
	"email-digest", "report-generation", "cache-warmup",
	"image-resize", "data-export", "index-rebuild", "session-cleanup",
}

var workerQueues = []string{"default", "critical", "low-priority"}

var workerOutcomes = []string{
	"completed", "completed", "completed", "completed", "completed",
	"completed", "retrying", "failed",
}

var notificationChannels = []string{"email", "sms", "push", "webhook"}

var notificationTemplates = []string{
	"order-confirmation", "password-reset", "shipping-update",
	"weekly-digest", "payment-receipt", "account-alert",
}

var errorMessages = []string{
	"connection reset by peer",
	"upstream timeout after 30s",
	"null reference in order projection",
	"failed to acquire connection from pool",
	"unexpected EOF while reading response body",
	"deadlock detected on table orders",
	"circuit breaker open for payment-service",
	"serialization failure, transaction rolled back",
}

var errorCodes = []string{"ERR_CONN_RESET", "ERR_TIMEOUT", "ERR_NULL_REF", "ERR_POOL_EXHAUSTED", "ERR_DEADLOCK", "ERR_CIRCUIT_OPEN"}

var auditActions = []string{"create", "update", "delete", "export", "permission-change"}

var auditResources = []string{"user", "order", "product", "api-key", "report", "configuration"}

// pick returns a uniformly random element, or the zero value for an empty
// table so a bad draw degrades instead of panicking.
func pick[T any](r *rand.Rand, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[r.Intn(len(items))]
}

// between returns a uniformly random integer in [min, max].
func between(r *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min+1)
}

// amountBetween returns a random monetary amount rounded to cents.
func amountBetween(r *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	v := min + r.Float64()*(max-min)
	return float64(int(v*100)) / 100
}

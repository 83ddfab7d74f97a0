package internal

import "expvar"

var (
	webhookRequests   = expvar.NewMap("jiraflows_webhook_requests_total")
	signatureFailures = expvar.NewInt("jiraflows_signature_failures_total")
	parseErrors       = expvar.NewInt("jiraflows_parse_errors_total")
	dispatches        = expvar.NewMap("jiraflows_dispatches_total")
	publishErrors     = expvar.NewMap("jiraflows_publish_errors_total")
	apiErrors         = expvar.NewMap("jiraflows_api_errors_total")
)

func IncWebhookRequest(event string) {
	if event == "" {
		event = "unknown"
	}
	webhookRequests.Add(event, 1)
}

func IncSignatureFailure() {
	signatureFailures.Add(1)
}

func IncParseError() {
	parseErrors.Add(1)
}

func IncDispatch(kind string) {
	dispatches.Add(kind, 1)
}

func IncPublishError(driver string) {
	publishErrors.Add(driver, 1)
}

func IncAPIError(operation string) {
	apiErrors.Add(operation, 1)
}

package webhook

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/spacelift-io/flows-app-jira/internal"
)

// JiraHandler is the single webhook ingress endpoint. It verifies the payload
// signature when a secret is configured, classifies the payload by its
// webhookEvent discriminator, and hands the normalized body to the
// dispatcher. Jira does not retry rejected deliveries, so unrecognized events
// are acknowledged with 200 rather than refused.
type JiraHandler struct {
	secret     string
	dispatcher *internal.Dispatcher
	logger     *log.Logger
	maxBody    int64
}

// NewJiraHandler creates the ingress handler. A zero maxBody disables the
// request size cap; a nil logger falls back to the default logger.
func NewJiraHandler(secret string, dispatcher *internal.Dispatcher, logger *log.Logger, maxBody int64) *JiraHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &JiraHandler{
		secret:     secret,
		dispatcher: dispatcher,
		logger:     logger,
		maxBody:    maxBody,
	}
}

func (h *JiraHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := r.Body
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	rawBody, err := io.ReadAll(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Bad Request"))
		return
	}

	if err := verifySignature(rawBody, r.Header.Get(SignatureHeader), h.secret); err != nil {
		h.logger.Printf("webhook rejected: %v", err)
		internal.IncSignatureFailure()
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Unauthorized"))
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		h.logger.Printf("webhook parse failed: %v", err)
		internal.IncParseError()
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Bad Request"))
		return
	}

	eventName, _ := payload["webhookEvent"].(string)
	internal.IncWebhookRequest(eventName)

	kind, ok := internal.Classify(payload)
	if !ok {
		h.logger.Printf("unsupported webhook event type: %q", eventName)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	messageBody := internal.ExtractBody(kind, payload)
	if err := h.dispatcher.Dispatch(r.Context(), kind, messageBody); err != nil {
		h.logger.Printf("dispatch %s failed: %v", kind, err)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Bad Request"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

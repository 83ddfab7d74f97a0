// Package api is the host-facing HTTP surface of the adapter: the block
// catalog, block execution, subscriber management, and the credential check.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/spacelift-io/flows-app-jira/internal"
	"github.com/spacelift-io/flows-app-jira/pkg/blocks"
	"github.com/spacelift-io/flows-app-jira/pkg/jira"
)

// SubscriberStore is the mutation surface of a persistent subscriber
// registry. The dispatcher only needs List; the API needs the rest.
type SubscriberStore interface {
	ListAll(ctx context.Context) ([]internal.Subscriber, error)
	Upsert(ctx context.Context, sub internal.Subscriber) error
	Delete(ctx context.Context, id string) error
}

// CatalogHandler lists every block with its input field specs.
type CatalogHandler struct {
	Logger *log.Logger
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	catalog := blocks.Catalog()
	descriptors := make(map[string]blocks.Descriptor, len(catalog))
	for name, block := range catalog {
		descriptors[name] = block.Descriptor
	}
	writeJSON(w, descriptors)
}

// ExecuteHandler runs a named block with the request body as its input
// configuration.
type ExecuteHandler struct {
	Client *jira.Client
	Logger *log.Logger
}

func (h *ExecuteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "missing block name", http.StatusBadRequest)
		return
	}
	block, ok := blocks.Catalog()[name]
	if !ok {
		http.Error(w, "unknown block", http.StatusNotFound)
		return
	}
	input, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}

	output, err := block.Run(r.Context(), h.Client, input)
	if err != nil {
		internal.IncAPIError(name)
		if h.Logger != nil {
			h.Logger.Printf("block %s failed: %v", name, err)
		}
		var notFound *blocks.NotFoundError
		var apiErr *jira.APIError
		switch {
		case errors.As(err, &notFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.As(err, &apiErr):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	writeJSON(w, output)
}

// SyncHandler verifies the configured credentials against Jira and reports
// the authenticated identity.
type SyncHandler struct {
	Client *jira.Client
	Logger *log.Logger
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, err := h.Client.Myself(r.Context())
	if err != nil {
		internal.IncAPIError("myself")
		if h.Logger != nil {
			h.Logger.Printf("credential check failed: %v", err)
		}
		http.Error(w, "credential check failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{
		"accountId":    user.AccountID,
		"displayName":  user.DisplayName,
		"emailAddress": user.EmailAddress,
	})
}

// SubscribersHandler manages persistent webhook subscriptions.
type SubscribersHandler struct {
	Store  SubscriberStore
	Logger *log.Logger
}

// subscriberView is the wire representation of a subscriber.
type subscriberView struct {
	ID          string   `json:"id"`
	Event       string   `json:"event"`
	ProjectKeys []string `json:"projectKeys,omitempty"`
	IssueTypes  []string `json:"issueTypes,omitempty"`
	Priorities  []string `json:"priorities,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	When        string   `json:"when,omitempty"`
}

func (h *SubscribersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost, http.MethodPut:
		h.upsert(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SubscribersHandler) list(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Store.ListAll(r.Context())
	if err != nil {
		http.Error(w, "list subscribers failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("list subscribers failed: %v", err)
		}
		return
	}
	views := make([]subscriberView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, toView(sub))
	}
	writeJSON(w, views)
}

func (h *SubscribersHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var view subscriberView
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		http.Error(w, "invalid subscriber", http.StatusBadRequest)
		return
	}
	sub, err := fromView(view)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Store.Upsert(r.Context(), sub); err != nil {
		http.Error(w, "save subscriber failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("save subscriber failed: %v", err)
		}
		return
	}
	writeJSON(w, toView(sub))
}

func (h *SubscribersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		http.Error(w, "delete subscriber failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("delete subscriber failed: %v", err)
		}
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}

func toView(sub internal.Subscriber) subscriberView {
	return subscriberView{
		ID:          sub.ID,
		Event:       string(sub.Kind),
		ProjectKeys: sub.Filter.ProjectKeys,
		IssueTypes:  sub.Filter.IssueTypes,
		Priorities:  sub.Filter.Priorities,
		Statuses:    sub.Filter.Statuses,
		When:        sub.When.String(),
	}
}

func fromView(view subscriberView) (internal.Subscriber, error) {
	view.ID = strings.TrimSpace(view.ID)
	view.Event = strings.TrimSpace(view.Event)
	if view.ID == "" || view.Event == "" {
		return internal.Subscriber{}, errors.New("subscriber id and event are required")
	}
	kind, ok := internal.KindFromString(view.Event)
	if !ok {
		return internal.Subscriber{}, errors.New("unknown event kind: " + view.Event)
	}
	when, err := internal.CompileWhen(strings.TrimSpace(view.When))
	if err != nil {
		return internal.Subscriber{}, err
	}
	return internal.Subscriber{
		ID:   view.ID,
		Kind: kind,
		Filter: internal.FilterConfig{
			ProjectKeys: view.ProjectKeys,
			IssueTypes:  view.IssueTypes,
			Priorities:  view.Priorities,
			Statuses:    view.Statuses,
		},
		When: when,
	}, nil
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

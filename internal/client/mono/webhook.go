package mono

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/GregMSThompson/budget-sync/internal/middleware"
	"github.com/GregMSThompson/budget-sync/internal/models"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

// Registrar is the client surface webhook setup needs.
type Registrar interface {
	SetWebhook(ctx context.Context, url string) error
}

// Registrars adapts a set of clients for NewWebhookSource.
func Registrars(clients []*Client) []Registrar {
	out := make([]Registrar, 0, len(clients))
	for _, c := range clients {
		out = append(out, c)
	}
	return out
}

// webhookPayload is the inbound push shape: one statement record under
// "data". The record itself names the account it belongs to.
type webhookPayload struct {
	Data statementJSON `json:"data"`
}

// WebhookSource receives pushed statement items over HTTP. One receiver
// serves every webhook-mode account; the bank is told the same URL for each
// token. Delivery is fire-and-forget from the bank's perspective: the
// receiver acknowledges with 200 no matter what dispatch does, and
// durability past that point is the pipeline's problem.
type WebhookSource struct {
	registrars []Registrar
	listen     string
	path       string
	publicURL  string
}

func NewWebhookSource(registrars []Registrar, listenAddr, path, publicURL string) *WebhookSource {
	return &WebhookSource{
		registrars: registrars,
		listen:     listenAddr,
		path:       path,
		publicURL:  publicURL,
	}
}

func (s *WebhookSource) ID() string {
	return "webhook"
}

// Prepare registers the public URL with the bank, once per token.
func (s *WebhookSource) Prepare(ctx context.Context) error {
	for _, r := range s.registrars {
		if err := r.SetWebhook(ctx, s.publicURL); err != nil {
			return err
		}
	}
	return nil
}

func (s *WebhookSource) Run(ctx context.Context, emit func(ctx context.Context, item models.StatementItem) error) error {
	srv := &http.Server{
		Addr:    s.listen,
		Handler: s.Router(ctx, emit),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Router exposes the receiver's routes; split out so tests can hit it with
// httptest without binding a port.
func (s *WebhookSource) Router(ctx context.Context, emit func(ctx context.Context, item models.StatementItem) error) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(logger.FromContext(ctx)).LoggerMiddleware)

	r.Post(s.path, func(w http.ResponseWriter, req *http.Request) {
		log, rctx := logger.With(req.Context(), "delivery_id", uuid.NewString())

		var payload webhookPayload
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			log.Warn("undecodable webhook payload", "error", err)
		} else if err := emit(rctx, payload.Data.toModel("")); err != nil {
			log.Error("webhook dispatch failed", "error", err)
		}

		// the bank only wants to hear 200; failures are ours to handle
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

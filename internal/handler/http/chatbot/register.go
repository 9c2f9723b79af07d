// Package chatbot exposes the Retrieval Interface over HTTP for a chat
// assistant layer to pull grounding context.
package chatbot

import (
	"log/slog"
	"net/http"

	"hybridnews/internal/usecase/retrieve"
)

// Register wires the chatbot endpoints onto mux.
func Register(mux *http.ServeMux, svc *retrieve.Service, logger *slog.Logger) {
	mux.Handle("POST /chatbot/retrieve-context", RetrieveHandler{Svc: svc, Logger: logger})
}

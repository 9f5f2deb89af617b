package routes

import (
	"net/http"

	"github.com/globizora/api-service/handlers"
)

func InfoRoutes(mux *http.ServeMux, ih *handlers.InfoHandler, ch *handlers.ContactHandler) {
	mux.HandleFunc("GET /{$}", ih.Root)
	mux.HandleFunc("GET /status", ih.Status)
	mux.HandleFunc("GET /company", ih.Company)
	mux.HandleFunc("GET /metrics", ih.Metrics)
	mux.HandleFunc("POST /contact", ch.Submit)

	mux.HandleFunc("/", ih.NotFound)
}

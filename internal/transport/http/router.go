package http

import (
	"net/http"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/metrics"

	"go.uber.org/zap"
)

// NewRouter wires every endpoint. m may be nil, in which case /metrics is not served.
func NewRouter(service *app.EventService, verifier TokenVerifier, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	api := NewHandler(service, logger)
	ws := NewWSHandler(service, logger)

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		var handler http.Handler = requireUser(verifier, h)
		if m != nil {
			handler = m.Middleware(name, handler)
		}
		mux.Handle(pattern, handler)
	}
	route("GET /events/weekly/current", "current", api.CurrentEvent)
	route("POST /events/weekly/node/{index}/complete", "complete", api.CompleteNode)
	route("GET /events/weekly/node/{index}/questions", "questions", api.NodeQuestions)
	route("POST /events/weekly/node/{index}/vote", "vote", api.SubmitVote)
	route("GET /events/weekly/node/{index}/votes/live", "votes_live", ws.ServeLiveVotes)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return withRequestLogging(logger, mux)
}

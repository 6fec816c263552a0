package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	authorizationregistry "mintbox/contexts/minting-core/authorization-registry"
	creditledger "mintbox/contexts/minting-core/credit-ledger"
	documenthasher "mintbox/contexts/minting-core/document-hasher"
	mintingorchestrator "mintbox/contexts/minting-core/minting-orchestrator"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "mintbox/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	hasher       documenthasher.Module
	ledger       creditledger.Module
	registry     authorizationregistry.Module
	orchestrator mintingorchestrator.Module
}

func New(
	hasher documenthasher.Module,
	ledger creditledger.Module,
	registry authorizationregistry.Module,
	orchestrator mintingorchestrator.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		hasher:       hasher,
		ledger:       ledger,
		registry:     registry,
		orchestrator: orchestrator,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/minting/v1/documents/digest", s.handleDigestDocument)

	s.mux.HandleFunc("POST /api/minting/v1/accounts", s.handleRegisterAccount)
	s.mux.HandleFunc("GET /api/minting/v1/accounts/{identity}/balance", s.handleGetBalance)
	s.mux.HandleFunc("POST /api/minting/v1/accounts/{identity}/deposit", s.handleDeposit)
	s.mux.HandleFunc("GET /api/minting/v1/cost", s.handleCost)

	s.mux.HandleFunc("POST /api/minting/v1/requests", s.handleCreateRequest)
	s.mux.HandleFunc("GET /api/minting/v1/requests", s.handleListRequests)
	s.mux.HandleFunc("GET /api/minting/v1/requests/{request_id}", s.handleGetRequest)
	s.mux.HandleFunc("GET /api/minting/v1/requests/{request_id}/validity", s.handleRequestValidity)
	s.mux.HandleFunc("POST /api/minting/v1/requests/{request_id}/authorize", s.handleAuthorizeRequest)
	s.mux.HandleFunc("POST /api/minting/v1/requests/{request_id}/cancel", s.handleCancelRequest)

	s.mux.HandleFunc("POST /api/minting/v1/requests/{request_id}/mint", s.handleMint)
	s.mux.HandleFunc("GET /api/minting/v1/requests/{request_id}/artifacts", s.handleGetArtifacts)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

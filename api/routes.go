package api

import (
	"github.com/gorilla/mux"
	"github.com/openfield/crewmarket/internal/config"
	"github.com/openfield/crewmarket/internal/engine"
	"github.com/openfield/crewmarket/pkg/repository"
)

// Services bundles the engine services and repositories the API exposes.
type Services struct {
	Jobs     *engine.Jobs
	Requests *engine.Requests
	Ratings  *engine.Ratings
	Accounts repository.AccountRepo
	Profiles repository.WorkerProfileRepo
}

func SetupRoutes(cfg *config.Config, version, buildTime string, svc Services) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(svc.Accounts, svc.Profiles, cfg.JWTSecret, cfg.TokenDuration)
	jobsHandler := NewJobsHandler(svc.Jobs)
	requestsHandler := NewRequestsHandler(svc.Requests)
	ratingsHandler := NewRatingsHandler(svc.Ratings)
	profileHandler := NewProfileHandler(svc.Profiles)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Job postings and assignment
	apiV1.HandleFunc("/jobs", jobsHandler.Create).Methods("POST")
	apiV1.HandleFunc("/jobs/eligible", jobsHandler.ListEligible).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.Get).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/accept", jobsHandler.Accept).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/complete", jobsHandler.Complete).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/cancel", jobsHandler.Cancel).Methods("POST")

	// Service requests and the quote marketplace
	apiV1.HandleFunc("/service-requests", requestsHandler.Open).Methods("POST")
	apiV1.HandleFunc("/service-requests/open", requestsHandler.ListOpen).Methods("GET")
	apiV1.HandleFunc("/service-requests/{id}/cancel", requestsHandler.Cancel).Methods("POST")
	apiV1.HandleFunc("/service-requests/{id}/quotes", requestsHandler.SubmitQuote).Methods("POST")
	apiV1.HandleFunc("/service-requests/{id}/quotes", requestsHandler.ListQuotes).Methods("GET")
	apiV1.HandleFunc("/quotes/{id}/accept", requestsHandler.AcceptQuote).Methods("POST")

	// Capability profile
	apiV1.HandleFunc("/profile", profileHandler.Get).Methods("GET")
	apiV1.HandleFunc("/profile/availability", profileHandler.SetAvailability).Methods("PUT")

	// Rating ledger
	apiV1.HandleFunc("/ratings", ratingsHandler.Submit).Methods("POST")
	apiV1.HandleFunc("/ratings", ratingsHandler.ListBySubject).Methods("GET")

	return r
}

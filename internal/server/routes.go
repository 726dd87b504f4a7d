package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health and version
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// Mock JIRA REST surface (v2 and v3)
	mock := s.app.MockJiraHandler
	mux.HandleFunc("/api/jira/mock/rest/api/{version}/issue", mock.IssuesHandler)                            // POST
	mux.HandleFunc("/api/jira/mock/rest/api/{version}/issue/{idOrKey}", mock.IssueHandler)                   // GET, PUT
	mux.HandleFunc("/api/jira/mock/rest/api/{version}/issue/{idOrKey}/comment", mock.CommentsHandler)        // GET, POST
	mux.HandleFunc("/api/jira/mock/rest/api/{version}/issue/{idOrKey}/transitions", mock.TransitionsHandler) // GET, POST
	mux.HandleFunc("/api/jira/mock/rest/api/{version}/search/jql", mock.SearchHandler)                       // GET, POST
	mux.HandleFunc("/api/jira/mock/{rest...}", mock.NotFoundHandler)

	// Relay to a connection's JIRA server (any method)
	mux.HandleFunc("/api/jira/{connectionID}/{path...}", s.app.RelayHandler.ProxyHandler)

	// Connections
	conn := s.app.ConnectionHandler
	mux.HandleFunc("/api/connections", s.handleConnectionsRoute)                        // GET (list), POST (create)
	mux.HandleFunc("/api/connections/{id}", conn.ConnectionHandler)                     // GET, PUT, DELETE
	mux.HandleFunc("/api/connections/{id}/search", conn.SearchHandler)                  // GET
	mux.HandleFunc("/api/connections/{id}/issues/{key}", conn.IssueHandler)             // GET
	mux.HandleFunc("/api/connections/{id}/issues/{key}/comments", conn.CommentsHandler) // GET, POST

	// Mock JIRA controls for end-to-end tests
	if s.app.Config.IsTest() {
		test := s.app.TestHandler
		mux.HandleFunc("/api/test/mock-jira/reset", test.ResetHandler)
		mux.HandleFunc("/api/test/mock-jira/seed", test.SeedHandler)
		mux.HandleFunc("/api/test/mock-jira/issues", test.CreateIssueHandler)
		mux.HandleFunc("/api/test/mock-jira/issues/{idOrKey}", test.IssueHandler)
		mux.HandleFunc("/api/test/mock-jira/issues/{idOrKey}/comments", test.CommentsHandler)
		s.app.Logger.Warn().Msg("Test harness endpoints enabled")
	}

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleConnectionsRoute routes /api/connections requests (list and create)
func (s *Server) handleConnectionsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.ConnectionHandler.ListConnectionsHandler,
		s.app.ConnectionHandler.CreateConnectionHandler,
	)
}

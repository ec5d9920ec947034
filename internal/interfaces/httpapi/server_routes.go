package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/result", handler.GetFinalResult)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedAssignmentRoutes(mux, handler, verifier)
	registerAuthorizedLineupRoutes(mux, handler, verifier)
	registerAuthorizedLifecycleRoutes(mux, handler, verifier)
	registerAuthorizedScoringRoutes(mux, handler, verifier)
	registerAuthorizedSignoffRoutes(mux, handler, verifier)
	registerAuthorizedAdminRoutes(mux, handler, verifier)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/matches/{matchID}/teams/{teamID}/evaluation", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestEvaluatorVerdict)))
	mux.Handle("POST /v1/internal/jobs/recompute-results", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecomputeResultsJob)))
}

func registerAuthorizedAssignmentRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches/{matchID}/assignment/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptAssignment)))
	mux.Handle("POST /v1/matches/{matchID}/assignment/decline", RequireAuth(verifier, http.HandlerFunc(handler.DeclineAssignment)))
}

func registerAuthorizedLineupRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/matches/{matchID}/teams/{teamID}/lineup", RequireAuth(verifier, http.HandlerFunc(handler.SubmitLineup)))
	mux.Handle("POST /v1/matches/{matchID}/teams/{teamID}/lineup/approve", RequireAuth(verifier, http.HandlerFunc(handler.ApproveLineup)))
	mux.Handle("POST /v1/matches/{matchID}/teams/{teamID}/lineup/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectLineup)))
}

func registerAuthorizedLifecycleRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches/{matchID}/start", RequireAuth(verifier, http.HandlerFunc(handler.StartMatch)))
	mux.Handle("POST /v1/matches/{matchID}/pause", RequireAuth(verifier, http.HandlerFunc(handler.PauseMatch)))
	mux.Handle("POST /v1/matches/{matchID}/resume", RequireAuth(verifier, http.HandlerFunc(handler.ResumeMatch)))
	mux.Handle("POST /v1/matches/{matchID}/end", RequireAuth(verifier, http.HandlerFunc(handler.EndMatch)))
}

func registerAuthorizedScoringRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/matches/{matchID}/teams/{teamID}/scores", RequireAuth(verifier, http.HandlerFunc(handler.SubmitJudgeScores)))
	mux.Handle("POST /v1/matches/{matchID}/teams/{teamID}/scores/lock", RequireAuth(verifier, http.HandlerFunc(handler.LockJudgeScores)))
	mux.Handle("GET /v1/matches/{matchID}/teams/{teamID}/scores", RequireAuth(verifier, http.HandlerFunc(handler.ListJudgeScores)))
	mux.Handle("GET /v1/matches/{matchID}/teams/{teamID}/discrepancies", RequireAuth(verifier, http.HandlerFunc(handler.ListScoreDiscrepancies)))
}

func registerAuthorizedSignoffRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/matches/{matchID}/signatures", RequireAuth(verifier, http.HandlerFunc(handler.RecordSignature)))
	mux.Handle("POST /v1/matches/{matchID}/finalize", RequireAuth(verifier, http.HandlerFunc(handler.SubmitFinalResults)))
}

func registerAuthorizedAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/admin/matches", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.ScheduleMatch))))
	mux.Handle("POST /v1/matches/{matchID}/cancel", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.CancelMatch))))
	mux.Handle("POST /v1/admin/jobs/recompute-results", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.RunRecomputeResultsJob))))
}

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shivavenkatesh/webforge/internal/accounts"
	"github.com/shivavenkatesh/webforge/internal/editor"
	"github.com/shivavenkatesh/webforge/internal/projects"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

type meResponse struct {
	*types.User
	ReferralLink string `json:"referral_link"`
}

// handleSignUp handles POST /auth/signup
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req types.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ReferralCode == "" {
		req.ReferralCode = r.URL.Query().Get("ref")
	}

	u, err := s.svc.Accounts.SignUp(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, meResponse{User: u, ReferralLink: accounts.ReferralLink(s.config.SiteURL, u)}, http.StatusCreated)
}

// handleGetMe handles GET /me
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	writeJSON(w, meResponse{User: u, ReferralLink: accounts.ReferralLink(s.config.SiteURL, u)}, http.StatusOK)
}

// handleUpdateMe handles PATCH /me
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.svc.Accounts.UpdateProfile(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, meResponse{User: u, ReferralLink: accounts.ReferralLink(s.config.SiteURL, u)}, http.StatusOK)
}

// handleCredits handles GET /credits
func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := s.svc.Credits.Summary(r.Context(), userFrom(r.Context()).ID, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// handleReferrals handles GET /referrals
func (s *Server) handleReferrals(w http.ResponseWriter, r *http.Request) {
	refs, err := s.svc.Accounts.Referrals(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"referrals": refs}, http.StatusOK)
}

// handleReferralStats handles GET /referrals/stats
func (s *Server) handleReferralStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Accounts.ReferralStats(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

// handleListProjects handles GET /projects
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Projects.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"projects": list}, http.StatusOK)
}

// handleCreateProject handles POST /projects
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req types.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.svc.Projects.Create(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p, http.StatusCreated)
}

// handleCatalog handles GET /projects/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"types":     projects.Types(),
		"templates": projects.Templates(),
	}, http.StatusOK)
}

// handleGetProject handles GET /projects/{id}
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Projects.GetOwned(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

// handleUpdateProject handles PATCH /projects/{id}
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.svc.Projects.Update(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

// handleDeleteProject handles DELETE /projects/{id}
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Projects.Delete(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.svc.Editor.Close(id)
	writeJSON(w, map[string]bool{"deleted": true}, http.StatusOK)
}

// handleProjectFiles handles GET /projects/{id}/files
func (s *Server) handleProjectFiles(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Projects.GetOwned(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"files": projects.Files(p.Type)}, http.StatusOK)
}

// handleOpenEditor handles POST /editor/{id}
func (s *Server) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Editor.Open(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sess.Snapshot(), http.StatusOK)
}

// handleEditorSnapshot handles GET /editor/{id}
func (s *Server) handleEditorSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Editor.Get(userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sess.Snapshot(), http.StatusOK)
}

// handleCloseEditor handles DELETE /editor/{id}
func (s *Server) handleCloseEditor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.svc.Editor.Get(userFrom(r.Context()).ID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"closed": s.svc.Editor.Close(id)}, http.StatusOK)
}

type messageRequest struct {
	Message string `json:"message"`
}

// handleEditorMessage handles POST /editor/{id}/messages
func (s *Server) handleEditorMessage(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sess, err := s.svc.Editor.Get(user.ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// Requests that would be refused anyway do not spend throttle tokens
	if err := sess.Ready(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if user.Credits < s.svc.Credits.TurnCost() {
		s.writeServiceError(w, r, editor.ErrInsufficientCredits)
		return
	}

	if s.svc.Throttle != nil && !s.svc.Throttle.Allow(user.ID) {
		writeError(w, "Too many assistant requests, slow down", http.StatusTooManyRequests)
		return
	}

	ex, err := sess.Submit(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, editor.ErrEmptyUtterance) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ex, http.StatusOK)
}

type codeRequest struct {
	Code string `json:"code"`
}

// handleEditorCode handles PUT /editor/{id}/code
func (s *Server) handleEditorCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.svc.Editor.Get(userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := sess.Edit(req.Code); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sess.Snapshot(), http.StatusOK)
}

// handleEditorSave handles POST /editor/{id}/save
func (s *Server) handleEditorSave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Editor.Get(userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := sess.Persist(r.Context()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"saved": true}, http.StatusOK)
}

// handleListTickets handles GET /tickets
func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.svc.Support.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"tickets": tickets}, http.StatusOK)
}

// handleCreateTicket handles POST /tickets
func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req types.CreateTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, err := s.svc.Support.Create(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ticket, http.StatusCreated)
}

// handleGetTicket handles GET /tickets/{id}
func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.svc.Support.Get(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ticket, http.StatusOK)
}

type ticketStatusRequest struct {
	Status types.TicketStatus `json:"status"`
}

// handleUpdateTicket handles PATCH /tickets/{id}
func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, err := s.svc.Support.UpdateStatus(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"), req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ticket, http.StatusOK)
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-claimform/internal/storage"
	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/template"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID   string `json:"userId"`
	Redirect string `json:"redirect"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.auth.Signup(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.auth.Issue(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSession(w, session)
	s.writeJSON(w, http.StatusOK, sessionResponse{UserID: user.ID, Redirect: "/"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSession(w, session)
	s.writeJSON(w, http.StatusOK, sessionResponse{UserID: session.UserID, Redirect: "/"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	var body struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.ChangePassword(r.Context(), session.UserID, body.Old, body.New); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type claimResponse struct {
	Claim storage.Claim  `json:"claim"`
	Forms []storage.Form `json:"forms"`
}

func (s *Server) handleCurrentClaim(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	claim, err := s.claims.FindIncompleteClaimOrCreate(r.Context(), session.UserID, s.claimForms)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	forms, err := s.claims.Forms(r.Context(), session.UserID, claim.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, claimResponse{Claim: claim, Forms: nonNilForms(forms)})
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	forms, err := s.claims.Forms(r.Context(), session.UserID, pathValue(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNilForms(forms))
}

func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	var responses answers.Set
	if err := decodeJSON(r, &responses); err != nil {
		s.writeError(w, r, err)
		return
	}
	form, err := s.claims.SaveResponses(r.Context(), session.UserID, pathValue(r, "id"), pathValue(r, "key"), responses)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleClaimProgress(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	p, err := s.claims.Progress(r.Context(), session.UserID, pathValue(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	var body struct {
		State string `json:"state"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := storage.ParseClaimState(body.State)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	claimID := pathValue(r, "id")
	if _, err := s.claims.Claim(r.Context(), session.UserID, claimID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.claims.SetClaimState(r.Context(), claimID, state); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())
	var body struct {
		To   storage.Address `json:"to"`
		From storage.Address `json:"from"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	letter, err := s.claims.Submit(r.Context(), session.UserID, pathValue(r, "id"), body.To, body.From)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, letter)
}

// handleEvaluate computes progress for posted responses without storing
// them. Unknown template keys evaluate like a missing template.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var responses answers.Set
	if err := decodeJSON(r, &responses); err != nil {
		s.writeError(w, r, err)
		return
	}
	form, _ := s.templates.Form(pathValue(r, "key"))
	summary, err := s.progress.Compute(form, responses)
	if err != nil {
		s.writeError(w, r, StatusError{Code: http.StatusUnprocessableEntity, Reason: CodeInvalidTemplate, Err: err})
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

type templateSummary struct {
	Key    string `json:"key"`
	Title  string `json:"title,omitempty"`
	Fields int    `json:"fields"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	keys := s.templates.Keys()
	out := make([]templateSummary, 0, len(keys))
	for _, key := range keys {
		form, _ := s.templates.Form(key)
		out = append(out, templateSummary{Key: key, Title: form.Title, Fields: len(form.Fields)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	form, ok := s.templates.Form(pathValue(r, "key"))
	if !ok {
		s.writeError(w, r, StatusError{Code: http.StatusNotFound, Reason: CodeFormNotFound, Err: errors.New("template not found")})
		return
	}
	s.writeJSON(w, http.StatusOK, templateView(form))
}

type templateResponse struct {
	*template.Form
	Signature template.Field `json:"signature"`
}

func templateView(form *template.Form) templateResponse {
	return templateResponse{Form: form, Signature: template.Signature()}
}

func nonNilForms(forms []storage.Form) []storage.Form {
	if forms == nil {
		return []storage.Form{}
	}
	return forms
}

package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/sweetpotato0/krishimitra/advisory"
	"github.com/sweetpotato0/krishimitra/config"
	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/session"
)

const (
	// MissingInputWarning is shown when the form lacks a question or pincode.
	MissingInputWarning = "Please enter both a question and a pincode to get advice."

	searchUnavailableNotice = "Web search was unavailable, so this answer was written without local search results."
)

type advisorView struct {
	Question   string
	Pincode    string
	Answer     string
	AnswerHTML template.HTML
	Warning    string
	Error      string
	Degraded   string
}

type adviceResponse struct {
	Answer string          `json:"answer"`
	Status advisory.Status `json:"status"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status_code"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Sessions  string `json:"sessions"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", nil)
}

func (s *Server) handleAdvisorPage(w http.ResponseWriter, r *http.Request) {
	view := advisorView{}
	if rec := s.loadRecord(r); rec != nil {
		s.fillView(r, &view, rec)
	}
	s.render(w, r, http.StatusOK, "advisor", view)
}

func (s *Server) handleAdvisorSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	req := advisory.Request{
		Question: r.PostFormValue("question"),
		Pincode:  r.PostFormValue("pincode"),
	}

	rec := s.loadRecord(r)
	if !validRequest(req) {
		view := advisorView{Question: req.Question, Pincode: req.Pincode, Warning: MissingInputWarning}
		if rec != nil {
			view.Answer = rec.Answer
			view.AnswerHTML = s.renderMarkdown(r, rec.Answer)
		}
		s.render(w, r, http.StatusOK, "advisor", view)
		return
	}

	if rec == nil {
		rec = session.NewRecord()
	}
	rec.Question = req.Question
	rec.Pincode = req.Pincode
	rec.UpdatedAt = time.Now()

	resp, err := s.advisor.Advise(r.Context(), req)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "advisory failed", "error", err)
		// The previous answer stays visible under the error.
		rec.Error = failureText(err)
	} else {
		rec.Answer = resp.Text
		rec.Status = string(resp.Status)
		rec.Error = ""
	}

	if err := s.store.Save(r.Context(), rec); err != nil {
		s.logger.ErrorContext(r.Context(), "session save failed", "error", err)
		view := advisorView{Question: rec.Question, Pincode: rec.Pincode, Error: rec.Error}
		s.fillView(r, &view, rec)
		s.render(w, r, http.StatusOK, "advisor", view)
		return
	}

	s.setSessionCookie(w, rec.ID)
	http.Redirect(w, r, "/advisor", http.StatusSeeOther)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req advisory.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validRequest(req) {
		s.writeError(w, http.StatusBadRequest, MissingInputWarning)
		return
	}

	resp, err := s.advisor.Advise(r.Context(), req)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "advisory failed", "error", err)
		s.writeError(w, statusFor(err), failureText(err))
		return
	}
	s.writeJSON(w, http.StatusOK, adviceResponse{Answer: resp.Text, Status: resp.Status})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Sessions:  "ok",
	}
	status := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Sessions = err.Error()
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

// validRequest applies the form rule that both fields must be filled in.
// The advisory flow itself accepts any strings.
func validRequest(req advisory.Request) bool {
	return !config.NewValidator().
		RequireNonEmpty("question", req.Question).
		RequireNonEmpty("pincode", req.Pincode).
		HasErrors()
}

func failureText(err error) string {
	var invocation *apperrors.AgentInvocationError
	switch {
	case apperrors.Is(err, apperrors.ErrConfiguration):
		return "KrishiMitra is not configured: " + err.Error()
	case apperrors.As(err, &invocation) && invocation.Err != nil:
		return "KrishiMitra could not generate an answer: " + invocation.Err.Error()
	default:
		return "KrishiMitra failed: " + err.Error()
	}
}

func statusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrAgentInvocation):
		return http.StatusBadGateway
	case apperrors.Is(err, apperrors.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fillView(r *http.Request, view *advisorView, rec *session.Record) {
	if view.Question == "" {
		view.Question = rec.Question
	}
	if view.Pincode == "" {
		view.Pincode = rec.Pincode
	}
	view.Answer = rec.Answer
	view.AnswerHTML = s.renderMarkdown(r, rec.Answer)
	view.Error = rec.Error
	if rec.Error == "" && rec.Status == string(advisory.StatusSearchUnavailable) {
		view.Degraded = searchUnavailableNotice
	}
}

func (s *Server) renderMarkdown(r *http.Request, source string) template.HTML {
	if source == "" {
		return ""
	}
	out, err := s.markdown.Render(source)
	if err != nil {
		s.logger.WarnContext(r.Context(), "markdown render failed", "error", err)
		return ""
	}
	return out
}

func (s *Server) loadRecord(r *http.Request) *session.Record {
	cookie, err := r.Cookie(CookieName)
	if err != nil || !session.ValidID(cookie.Value) {
		return nil
	}
	rec, err := s.store.Load(r.Context(), cookie.Value)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(r.Context(), "session load failed", "error", err)
		}
		return nil
	}
	return rec
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cfg.SessionTTL > 0 {
		cookie.MaxAge = int(s.cfg.SessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages[page].ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.ErrorContext(r.Context(), "render page failed", "page", page, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message, Status: status})
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

// messageRequest is the flat request envelope of spec.md §6.1. Fields stay
// flat on the wire (historical bug: frontends once nested these under
// "context", which silently disabled page gating).
type messageRequest struct {
	Text                string      `json:"text"`
	UserID              int64       `json:"user_id"`
	CurrentPage         *string     `json:"currentPage"`
	SelectedTripID      *int64      `json:"selectedTripId"`
	SelectedRouteID     *int64      `json:"selectedRouteId"`
	FromImage           bool        `json:"from_image"`
	ConversationHistory []flow.Turn `json:"conversation_history"`
}

// messageResponse wraps the final output envelope (spec.md §6.1).
type messageResponse struct {
	AgentOutput *flow.FinalOutput `json:"agent_output"`
	SessionID   string            `json:"session_id,omitempty"`
}

func (s *Server) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "invalid_parameters", "message": err.Error()}})
		return
	}
	if req.UserID == 0 {
		req.UserID = 1
	}

	st := &flow.State{
		UserID:              req.UserID,
		InputText:           req.Text,
		SelectedTripID:      req.SelectedTripID,
		SelectedRouteID:     req.SelectedRouteID,
		FromImage:           req.FromImage,
		ConversationHistory: req.ConversationHistory,
		RequestTime:         time.Now(),
	}
	if req.CurrentPage != nil {
		st.Page = flow.Page(*req.CurrentPage)
	}

	if err := s.restoreWizard(c, st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "database_error", "message": err.Error()}})
		return
	}

	st.AppendTurn(flow.RoleUser, req.Text)

	out, err := s.engine.Run(c.Request.Context(), st)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "database_error", "message": err.Error()}})
		return
	}
	st.AppendTurn(flow.RoleAssistant, out.Message)

	c.JSON(http.StatusOK, messageResponse{AgentOutput: out, SessionID: out.SessionID})
}

// restoreWizard loads the wizard Session named by the session_id query
// parameter, if given, into state before the graph runs (spec.md §4.7
// "wizard state survives request boundaries through the Session store").
// Sessions are not looked up by user, and the session's owner and status
// are not checked; an unknown id is ignored.
func (s *Server) restoreWizard(c *gin.Context, st *flow.State) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return nil
	}
	sess, err := s.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		return nil // unknown/expired session: proceed as a fresh turn
	}
	if sess.WizardState != nil {
		st.Wizard = sess.WizardState
		st.PendingSessionID = sessionID
		if len(sess.ConversationHistory) > 0 {
			st.ConversationHistory = sess.ConversationHistory
		}
	}
	return nil
}

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RudraKhare/movi-agent/pkg/apperr"
	"github.com/RudraKhare/movi-agent/pkg/flow"
	"github.com/RudraKhare/movi-agent/pkg/result"
	"github.com/RudraKhare/movi-agent/pkg/session"
)

// confirmRequest is the request envelope of spec.md §6.2.
type confirmRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Confirmed bool   `json:"confirmed"`
	UserID    int64  `json:"user_id"`
}

type confirmResponse struct {
	AgentOutput *flow.FinalOutput `json:"agent_output"`
}

// handleConfirm applies or cancels a pending_confirmation Session (spec.md
// §4.9, §6.2). Unlike the message entry it never touches the graph: a
// confirmed session dispatches straight to the executor with the session's
// already-resolved ids and parameters, skipping resolution and consequence
// checking since both already ran once to produce the pending session.
func (s *Server) handleConfirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "invalid_parameters", "message": err.Error()}})
		return
	}

	sess, err := s.sessions.Get(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusOK, confirmResponse{AgentOutput: errOutput(flow.ErrSessionExpired, "session not found or expired")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "database_error", "message": err.Error()}})
		return
	}
	if sess.Status != session.StatusPending {
		c.JSON(http.StatusOK, confirmResponse{AgentOutput: errOutput(flow.ErrSessionNotPending, "session is not pending")})
		return
	}
	if sess.UserID != req.UserID {
		c.JSON(http.StatusOK, confirmResponse{AgentOutput: errOutput(flow.ErrSessionNotPending, "session is not pending")})
		return
	}
	if sess.Expired(time.Now()) {
		c.JSON(http.StatusOK, confirmResponse{AgentOutput: errOutput(flow.ErrSessionExpired, "session has expired")})
		return
	}

	if !req.Confirmed {
		if err := s.sessions.Transition(c.Request.Context(), req.SessionID, session.StatusPending, session.StatusCancelled); err != nil {
			if errors.Is(err, apperr.ErrConcurrentModification) {
				c.JSON(http.StatusOK, confirmResponse{AgentOutput: errOutput(flow.ErrSessionNotPending, "session is not pending")})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "database_error", "message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, confirmResponse{AgentOutput: &flow.FinalOutput{
			Status:  flow.StatusCancelled,
			Success: true,
			Message: "cancelled",
		}})
		return
	}

	if err := s.sessions.Transition(c.Request.Context(), req.SessionID, session.StatusPending, session.StatusConfirmed); err != nil {
		if errors.Is(err, apperr.ErrConcurrentModification) {
			c.JSON(http.StatusOK, confirmResponse{AgentOutput: errOutput(flow.ErrSessionNotPending, "session is not pending")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "database_error", "message": err.Error()}})
		return
	}

	st := &flow.State{
		UserID:           req.UserID,
		PendingSessionID: req.SessionID,
		RequestTime:      time.Now(),
		Resolved: flow.Resolved{
			EntityType: sess.PendingAction.ResolvedType,
			EntityID:   sess.PendingAction.ResolvedID,
		},
		Consequences: sess.PendingAction.Consequences,
		Intent: flow.Intent{
			Action:     sess.PendingAction.Action,
			Parameters: sess.PendingAction.Parameters,
			Confidence: 1.0,
		},
	}

	out := s.runConfirmedExecution(c, st)

	// The session always ends DONE after a confirmed dispatch, success or
	// failure alike (spec.md §4.9 "On success, mark DONE; on failure, mark
	// DONE with an error payload").
	if err := s.sessions.Transition(c.Request.Context(), req.SessionID, session.StatusConfirmed, session.StatusDone); err != nil {
		out.Error = &flow.ErrorPayload{Kind: flow.ErrDatabaseError}
	}

	c.JSON(http.StatusOK, confirmResponse{AgentOutput: out})
}

func (s *Server) runConfirmedExecution(c *gin.Context, st *flow.State) *flow.FinalOutput {
	if err := s.executor.Execute(c.Request.Context(), st); err != nil {
		return errOutput(flow.ErrDatabaseError, err.Error())
	}
	return result.Format(st)
}

func errOutput(kind flow.ErrorKind, message string) *flow.FinalOutput {
	return &flow.FinalOutput{
		Status:  flow.StatusError,
		Success: false,
		Message: message,
		Error:   &flow.ErrorPayload{Kind: kind},
	}
}

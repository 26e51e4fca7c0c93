// Assistant HTTP handlers.
//
// This file exposes the chat endpoint of the AI assistant:
//   - POST /ai/chat
//
// Handlers are transport-thin: they validate input, call the assist service,
// and translate results into HTTP responses. The error contract is specific
// to this endpoint: even a 500 carries a user-safe apology in `response`, so
// clients can always render a chat bubble instead of a blank error state.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mktware/go-assist-backend/internal/domain"
	"github.com/mktware/go-assist-backend/internal/http/middleware"
	"github.com/mktware/go-assist-backend/internal/services"
	"github.com/mktware/go-assist-backend/internal/sysutil"
)

// apologyText is the fixed user-safe sentence returned on upstream failure.
const apologyText = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

// AssistService defines the pipeline operation consumed by the chat handler.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AssistService interface {
	// Respond resolves a chat request to a response through the
	// precomputed / rule / cache / completion cascade.
	Respond(ctx context.Context, req services.ChatRequest) (*services.ChatResponse, error)
}

// Handlers groups the HTTP endpoints of the assistant API.
type Handlers struct {
	assistSvc AssistService
}

// New constructs a Handlers instance bound to the given service.
func New(assistSvc AssistService) *Handlers {
	return &Handlers{assistSvc: assistSvc}
}

//
// DTOs
//

// ChatTurnDTO is one conversation turn in the request payload.
type ChatTurnDTO struct {
	Role    string `json:"role"    example:"user"`
	Content string `json:"content" example:"Do you have racing seats in stock?"`
}

// ChatRequest is the JSON payload for the chat endpoint.
type ChatRequest struct {
	// Message is the user's current utterance (required).
	Message string `json:"message" example:"track my order"`
	// ConversationHistory carries prior turns, oldest first.
	ConversationHistory []ChatTurnDTO `json:"conversationHistory,omitempty"`
	// Context is the client's page/cart/order snapshot.
	Context map[string]any `json:"context,omitempty"`
	// UserID identifies the user; anonymous requests are allowed.
	UserID string `json:"userId,omitempty" example:"user123"`
}

// ActionDTO is one suggested UI action.
type ActionDTO struct {
	Type  string `json:"type"  example:"navigate"`
	Label string `json:"label" example:"Track your orders"`
	Path  string `json:"path"  example:"/shop/orders"`
	Icon  string `json:"icon"  example:"package"`
}

// ChatResponse is the success payload of the chat endpoint.
type ChatResponse struct {
	Response string      `json:"response"`
	Source   string      `json:"source" example:"ai" enums:"precomputed,rule,cache,ai"`
	Cached   bool        `json:"cached"`
	Model    string      `json:"model,omitempty"`
	Tokens   int         `json:"tokens,omitempty"`
	Cost     float64     `json:"cost,omitempty"`
	Actions  []ActionDTO `json:"actions,omitempty"`
}

// ChatErrorResponse is the failure payload of the chat endpoint. Response is
// always populated on 500s so the UI can render something.
type ChatErrorResponse struct {
	Error    string `json:"error"`
	Response string `json:"response,omitempty"`
}

// assistUserID resolves the acting user: body first, then the X-User-ID
// header; empty means anonymous.
func assistUserID(c *gin.Context, body *ChatRequest) string {
	header := ""
	if c != nil && c.Request != nil {
		header = c.GetHeader("X-User-ID")
	}
	return strings.TrimSpace(sysutil.FirstNonEmpty(strings.TrimSpace(body.UserID), header))
}

// Chat godoc
// @ID          assistChat
// @Summary     Chat with the assistant
// @Description Resolves a user message through precomputed patterns, rules, the response cache, and finally the completion provider.
// @Tags        Assistant
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (overridden by body userId)"  example(user123)
// @Param       body       body    handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ChatErrorResponse  "Message missing"
// @Failure     500  {object}  handlers.ChatErrorResponse  "Upstream unavailable (response still carries an apology)"
// @Router      /ai/chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, ChatErrorResponse{Error: "Message is required"})
		return
	}

	history := make([]domain.ChatTurn, 0, len(req.ConversationHistory))
	for _, t := range req.ConversationHistory {
		history = append(history, domain.ChatTurn{Role: t.Role, Content: t.Content})
	}

	out, err := h.assistSvc.Respond(c.Request.Context(), services.ChatRequest{
		Message: req.Message,
		History: history,
		Context: req.Context,
		UserID:  assistUserID(c, &req),
	})
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, ChatErrorResponse{Error: "Message is required"})
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("assist pipeline failed")
		c.JSON(http.StatusInternalServerError, ChatErrorResponse{
			Error:    "assistant unavailable",
			Response: apologyText,
		})
		return
	}

	resp := ChatResponse{
		Response: out.Response,
		Source:   out.Source,
		Cached:   out.Cached,
		Model:    out.Model,
		Tokens:   out.Tokens,
		Cost:     out.Cost,
	}
	if len(out.Actions) > 0 {
		resp.Actions = make([]ActionDTO, 0, len(out.Actions))
		for _, a := range out.Actions {
			resp.Actions = append(resp.Actions, ActionDTO{Type: a.Type, Label: a.Label, Path: a.Path, Icon: a.Icon})
		}
	}
	ok(c, http.StatusOK, resp)
}

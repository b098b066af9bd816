package server

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/tandemlab/converse/conversation"
	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/logger"
	"github.com/tandemlab/converse/recognizer"
	"github.com/tandemlab/converse/sentiment"
	"github.com/tandemlab/converse/sse"
	"github.com/tandemlab/converse/stream"
	"github.com/tandemlab/converse/validation"
)

// Handlers bundles the pipeline services behind the HTTP routes.
type Handlers struct {
	Registry   *stream.Registry
	Forwarder  *stream.Forwarder
	Lifecycle  *conversation.Lifecycle
	Reconciler *conversation.Reconciler
	Analyzer   *sentiment.Analyzer
	Store      conversation.Store
	Hub        *sse.Hub
	Log        *logger.Logger
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handlers) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")

	conversations := v1.Group("/conversations")
	conversations.POST("", h.createConversation)
	conversations.GET("/:id", h.getConversation)
	conversations.POST("/:id/start", h.transition(h.Lifecycle.Start))
	conversations.POST("/:id/pause", h.transition(h.Lifecycle.Pause))
	conversations.POST("/:id/resume", h.transition(h.Lifecycle.Resume))
	conversations.POST("/:id/complete", h.transition(h.Lifecycle.Complete))
	conversations.POST("/:id/confirm", h.transition(h.Lifecycle.ConfirmSpeakers))
	conversations.POST("/:id/skip-summary", h.transition(h.Lifecycle.SkipSummary))
	conversations.GET("/:id/transcripts", h.listTranscripts)
	if h.Hub != nil {
		conversations.GET("/:id/transcripts/live", h.liveTranscripts)
	}
	conversations.POST("/:id/transcripts/swap-speakers", h.swapSpeakers)
	conversations.POST("/:id/analysis", h.runAnalysis)

	streams := v1.Group("/streams")
	streams.POST("", h.openStream)
	streams.POST("/:sessionId/frames", h.uploadFrame)
	streams.POST("/:sessionId/end", h.endStream)

	v1.PATCH("/transcripts/:lineId/speaker", h.setSpeaker)
}

type createConversationRequest struct {
	Speaker1ID   string `json:"speaker1Id" validate:"required"`
	Speaker1Name string `json:"speaker1Name" validate:"required"`
	Speaker2ID   string `json:"speaker2Id" validate:"required"`
	Speaker2Name string `json:"speaker2Name" validate:"required"`
}

func (h *Handlers) createConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}

	conv, err := h.Lifecycle.Create(c.Request.Context(), req.Speaker1ID, req.Speaker1Name, req.Speaker2ID, req.Speaker2Name)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, conv)
}

func (h *Handlers) getConversation(c *gin.Context) {
	conv, err := h.Lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, conv)
}

// transition adapts one lifecycle operation into a route handler.
func (h *Handlers) transition(op func(context.Context, string) (*conversation.Conversation, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		conv, err := op(c.Request.Context(), c.Param("id"))
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOK(c, conv)
	}
}

func (h *Handlers) listTranscripts(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Lifecycle.Get(c.Request.Context(), id); err != nil {
		RespondWithError(c, err)
		return
	}
	lines, err := h.Store.ListTranscriptLines(c.Request.Context(), id)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, lines)
}

// liveTranscripts streams newly ingested lines over Server-Sent Events.
func (h *Handlers) liveTranscripts(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Lifecycle.Get(c.Request.Context(), id); err != nil {
		RespondWithError(c, err)
		return
	}
	sse.ServeSSE(h.Hub, h.Log, c.Writer, c.Request, id)
}

type openStreamRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	SampleRate     int    `json:"sampleRate"`
	LanguageCode   string `json:"languageCode"`
}

func (h *Handlers) openStream(c *gin.Context) {
	var req openStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}
	if _, err := h.Lifecycle.Get(c.Request.Context(), req.ConversationID); err != nil {
		RespondWithError(c, err)
		return
	}

	session, err := h.Registry.Open(c.Request.Context(), req.ConversationID, recognizer.StreamRequest{
		ConversationID: req.ConversationID,
		SampleRate:     req.SampleRate,
		LanguageCode:   req.LanguageCode,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, gin.H{
		"sessionId":      session.ID,
		"conversationId": session.ConversationID,
	})
}

type uploadFrameRequest struct {
	FrameSequence int64 `json:"frameSequence"`
	// AudioBytes arrives base64-encoded; encoding/json decodes it.
	AudioBytes []byte `json:"audioBytes" validate:"required"`
}

func (h *Handlers) uploadFrame(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req uploadFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}

	if err := h.Forwarder.Write(c.Request.Context(), sessionID, req.AudioBytes); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"accepted": true,
		"sequence": req.FrameSequence,
		"byteSize": len(req.AudioBytes),
	})
}

// endStream is idempotent: it always responds success, with the message
// distinguishing a live session from an already-ended or unknown one.
func (h *Handlers) endStream(c *gin.Context) {
	ended := h.Forwarder.End(c.Request.Context(), c.Param("sessionId"))
	message := "session ended"
	if !ended {
		message = "session already ended or not found"
	}
	RespondOK(c, gin.H{
		"ended":   ended,
		"message": message,
	})
}

type setSpeakerRequest struct {
	// SpeakerTag 1 or 2 assigns; null (or omitted) clears the assignment.
	SpeakerTag *int `json:"speakerTag"`
}

func (h *Handlers) setSpeaker(c *gin.Context) {
	var req setSpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	line, err := h.Reconciler.SetSpeaker(c.Request.Context(), c.Param("lineId"), req.SpeakerTag)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, line)
}

func (h *Handlers) swapSpeakers(c *gin.Context) {
	outcome, err := h.Reconciler.SwapAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"changed":  outcome.Changed,
		"examined": outcome.Examined,
	})
}

type analysisRequest struct {
	Force bool `json:"force"`
}

func (h *Handlers) runAnalysis(c *gin.Context) {
	// The body is optional; an empty body means a default, non-forced run.
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	result, err := h.Analyzer.Analyze(c.Request.Context(), c.Param("id"), req.Force)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, result)
}

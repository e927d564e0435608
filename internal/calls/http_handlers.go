package calls

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"aira-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers exposes the tracker over HTTP.
// No lifecycle rules live here: parse the body, call the tracker, map the result.
type Handlers struct {
	Tracker *Tracker
}

// Register mounts the call lifecycle and history routes on r.
func (h Handlers) Register(r gin.IRoutes) {
	r.POST("/call/start", h.Start)
	r.POST("/call/end", h.End)
	r.POST("/call/finalize", h.Finalize)
	r.POST("/call/upload-audio", h.UploadAudio)
	r.POST("/call/transcript", h.Transcript)
	r.POST("/call/analyze", h.Analyze)
	r.POST("/call/fail", h.Fail)
	r.GET("/call/:conversationId", h.Get)
	r.GET("/history/:userId", h.History)
}

type startRequest struct {
	UserID string `json:"userId"`
	Intent string `json:"intent"`
}

type conversationRequest struct {
	ConversationID string `json:"conversationId"`
}

type finalizeRequest struct {
	ConversationID string          `json:"conversationId"`
	RecordingMeta  json.RawMessage `json:"recordingMeta"`
}

type uploadAudioRequest struct {
	ConversationID string `json:"conversationId"`
	AudioURL       string `json:"audioUrl"`
}

type transcriptRequest struct {
	ConversationID string `json:"conversationId"`
	TranscriptText string `json:"transcriptText"`
}

type analyzeRequest struct {
	ConversationID string          `json:"conversationId"`
	Summary        json.RawMessage `json:"summary"`
	Readiness      json.RawMessage `json:"readiness"`
}

type failRequest struct {
	ConversationID string `json:"conversationId"`
	Reason         string `json:"reason"`
}

func (h Handlers) Start(c *gin.Context) {
	var req startRequest
	if !bindBody(c, &req) {
		return
	}
	s, err := h.Tracker.StartCall(c.Request.Context(), StartRequest{UserID: req.UserID, Intent: req.Intent})
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Annotate(c, "conversation_id", s.ConversationID)
	c.JSON(http.StatusOK, gin.H{"success": true, "conversationId": s.ConversationID})
}

func (h Handlers) End(c *gin.Context) {
	var req conversationRequest
	if !bindBody(c, &req) {
		return
	}
	logger.Annotate(c, "conversation_id", req.ConversationID)
	res, err := h.Tracker.EndCall(c.Request.Context(), req.ConversationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "durationSeconds": res.DurationSeconds})
}

func (h Handlers) Finalize(c *gin.Context) {
	var req finalizeRequest
	if !bindBody(c, &req) {
		return
	}
	logger.Annotate(c, "conversation_id", req.ConversationID)
	if err := h.Tracker.FinalizeCall(c.Request.Context(), req.ConversationID, req.RecordingMeta); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) UploadAudio(c *gin.Context) {
	var req uploadAudioRequest
	if !bindBody(c, &req) {
		return
	}
	logger.Annotate(c, "conversation_id", req.ConversationID)
	if err := h.Tracker.UploadAudio(c.Request.Context(), req.ConversationID, req.AudioURL); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) Transcript(c *gin.Context) {
	var req transcriptRequest
	if !bindBody(c, &req) {
		return
	}
	logger.Annotate(c, "conversation_id", req.ConversationID)
	if err := h.Tracker.StoreTranscript(c.Request.Context(), req.ConversationID, req.TranscriptText); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) Analyze(c *gin.Context) {
	var req analyzeRequest
	if !bindBody(c, &req) {
		return
	}
	logger.Annotate(c, "conversation_id", req.ConversationID)
	if err := h.Tracker.AnalyzeCall(c.Request.Context(), req.ConversationID, req.Summary, req.Readiness); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) Fail(c *gin.Context) {
	var req failRequest
	if !bindBody(c, &req) {
		return
	}
	logger.Annotate(c, "conversation_id", req.ConversationID)
	if err := h.Tracker.FailCall(c.Request.Context(), req.ConversationID, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) Get(c *gin.Context) {
	s, err := h.Tracker.GetSession(c.Request.Context(), c.Param("conversationId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": s})
}

// Sweep runs the retention policy once. Mount it behind an admin guard.
func (h Handlers) Sweep(c *gin.Context) {
	n, err := h.Tracker.Sweep(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Annotate(c, "swept", n)
	c.JSON(http.StatusOK, gin.H{"success": true, "policy": h.Tracker.RetentionPolicy().Name(), "swept": n})
}

func (h Handlers) History(c *gin.Context) {
	hist, err := h.Tracker.History(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": hist})
}

// bindBody decodes a JSON body; an empty body decodes as {} so the tracker
// reports the missing fields itself.
func bindBody(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "validation"})
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		logger.FromGin(c).Error("call operation failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(code, gin.H{"error": "internal error", "kind": Kind(err)})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error(), "kind": Kind(err)})
}

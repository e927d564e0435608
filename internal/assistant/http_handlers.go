package assistant

import (
	"errors"
	"io"
	"net/http"

	"aira-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 25 << 20

type Handlers struct {
	Service *Service
}

func (h Handlers) Register(r gin.IRoutes) {
	r.GET("/aira-test", h.AiraTest)
	r.POST("/speech-to-text", h.SpeechToText)
	r.POST("/text-to-speech", h.TextToSpeech)
	r.POST("/audio-chunk", h.AudioChunk)
}

func (h Handlers) AiraTest(c *gin.Context) {
	reply, err := h.Service.Ask(c.Request.Context(), c.Query("q"))
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": reply})
}

func (h Handlers) SpeechToText(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("audio")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "audio file required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable audio"})
		return
	}
	defer f.Close()

	text, err := h.Service.Transcribe(c.Request.Context(), fh.Filename, f)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "text": text})
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (h Handlers) TextToSpeech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	audio, err := h.Service.Speak(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		upstreamError(c, err)
		return
	}
	defer audio.Close()

	c.Header("Content-Type", "audio/mpeg")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, audio); err != nil {
		logger.FromGin(c).Warn("speech stream interrupted", "err", err)
	}
}

func (h Handlers) AudioChunk(c *gin.Context) {
	logger.FromGin(c).Info("audio stream ping received", "bytes", c.Request.ContentLength)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func upstreamError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidInput) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	logger.FromGin(c).Error("assistant upstream failed", "err", err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}

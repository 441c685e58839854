package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loveaihub/loveaihub/internal/a4f"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/metrics"
	"github.com/loveaihub/loveaihub/internal/middleware"
	"github.com/loveaihub/loveaihub/internal/queue"
	"github.com/loveaihub/loveaihub/pkg/models"
)

// listModels returns the model catalog, optionally filtered by type
func (api *API) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models": a4f.ModelsByType(c.Query("type")),
	})
}

func (api *API) generateImage(c *gin.Context) {
	body, model, prompt, ok := bindGenerationRequest(c, true)
	if !ok {
		return
	}

	api.executeGeneration(c, models.GenerationTypeImage, model, prompt, models.Metadata(body),
		func(ctx context.Context) (json.RawMessage, error) {
			return api.provider.GenerateImage(ctx, body)
		})
}

func (api *API) generateVideo(c *gin.Context) {
	body, model, prompt, ok := bindGenerationRequest(c, true)
	if !ok {
		return
	}

	api.executeGeneration(c, models.GenerationTypeVideo, model, prompt, models.Metadata(body),
		func(ctx context.Context) (json.RawMessage, error) {
			return api.provider.GenerateVideo(ctx, body)
		})
}

func (api *API) chatCompletion(c *gin.Context) {
	body, model, prompt, ok := bindGenerationRequest(c, false)
	if !ok {
		return
	}
	if body["messages"] == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages is required"})
		return
	}

	api.executeGeneration(c, models.GenerationTypeChat, model, prompt, models.Metadata(body),
		func(ctx context.Context) (json.RawMessage, error) {
			return api.provider.ChatCompletions(ctx, body)
		})
}

func (api *API) generateAudio(c *gin.Context) {
	body, model, prompt, ok := bindGenerationRequest(c, false)
	if !ok {
		return
	}

	// The speech endpoint takes "input"; accept "prompt" as an alias
	if body["input"] == nil && prompt != "" {
		body["input"] = prompt
	}
	if body["input"] == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
		return
	}

	api.executeGeneration(c, models.GenerationTypeAudio, model, prompt, models.Metadata(body),
		func(ctx context.Context) (json.RawMessage, error) {
			return api.provider.GenerateSpeech(ctx, body)
		})
}

func (api *API) generateEmbeddings(c *gin.Context) {
	body, model, _, ok := bindGenerationRequest(c, false)
	if !ok {
		return
	}
	if body["input"] == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
		return
	}

	api.executeGeneration(c, models.GenerationTypeEmbeddings, model, "", models.Metadata(body),
		func(ctx context.Context) (json.RawMessage, error) {
			return api.provider.Embeddings(ctx, body)
		})
}

func (api *API) transcribeAudio(c *gin.Context) {
	model := c.PostForm("model")
	if model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close()

	metadata := models.Metadata{"filename": header.Filename, "size": header.Size}
	api.executeGeneration(c, models.GenerationTypeTranscription, model, "", metadata,
		func(ctx context.Context) (json.RawMessage, error) {
			return api.provider.Transcribe(ctx, model, header.Filename, file)
		})
}

func (api *API) editImage(c *gin.Context) {
	model := c.PostForm("model")
	prompt := c.PostForm("prompt")
	if model == "" || prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model and prompt are required"})
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded image"})
		return
	}
	defer file.Close()

	metadata := models.Metadata{"filename": header.Filename, "size": header.Size}
	api.executeGeneration(c, models.GenerationTypeImageEdit, model, prompt, metadata,
		func(ctx context.Context) (json.RawMessage, error) {
			return api.provider.EditImage(ctx, model, prompt, header.Filename, file)
		})
}

// bindGenerationRequest parses a JSON generation request. The body is kept
// as a map and forwarded to the provider verbatim, so model-specific options
// pass through without the API enumerating them.
func bindGenerationRequest(c *gin.Context, requirePrompt bool) (map[string]interface{}, string, string, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, "", "", false
	}

	model, _ := body["model"].(string)
	if model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
		return nil, "", "", false
	}

	prompt, _ := body["prompt"].(string)
	if requirePrompt && prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return nil, "", "", false
	}

	return body, model, prompt, true
}

// executeGeneration runs the shared generation lifecycle: consume quota,
// record a pending row, call the provider, then settle the row to its
// terminal state. The quota unit is returned when the provider call fails.
func (api *API) executeGeneration(c *gin.Context, genType, model, prompt string, metadata models.Metadata, call func(context.Context) (json.RawMessage, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	ctx := c.Request.Context()
	log := api.log.WithUserID(userID)

	if _, err := api.repo.ConsumeQuota(ctx, userID); err != nil {
		switch {
		case errors.Is(err, database.ErrQuotaExceeded):
			metrics.QuotaRejectionsTotal.Inc()
			c.JSON(http.StatusForbidden, gin.H{"error": "Free generation limit reached. Upgrade to continue."})
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found or deactivated"})
		default:
			log.ErrorWithErr("failed to consume quota", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start generation"})
		}
		return
	}

	gen := &models.Generation{
		UserID:   userID,
		Type:     genType,
		Model:    model,
		Prompt:   prompt,
		Metadata: metadata,
	}
	if err := api.repo.CreateGeneration(ctx, gen); err != nil {
		log.ErrorWithErr("failed to create generation", err)
		if refundErr := api.repo.RefundQuota(ctx, userID); refundErr != nil {
			log.ErrorWithErr("failed to refund quota", refundErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start generation"})
		return
	}

	metrics.GenerationsCreatedTotal.WithLabelValues(genType, model).Inc()
	api.log.LogGenerationEvent(gen.ID, genType, model, gen.Status)

	start := time.Now()
	result, callErr := call(ctx)
	metrics.ProviderRequestDuration.WithLabelValues(genType).Observe(time.Since(start).Seconds())

	if callErr != nil {
		api.settleFailure(ctx, gen, userID, callErr)
		metrics.GenerationsCompletedTotal.WithLabelValues(genType, models.GenerationStatusFailed).Inc()

		status := http.StatusBadGateway
		var apiErr *a4f.APIError
		if errors.As(callErr, &apiErr) && apiErr.Status == http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":      "Generation failed",
			"generation": gen,
		})
		return
	}

	completed, err := api.repo.CompleteGeneration(ctx, gen.ID, models.GenerationStatusCompleted, models.Document(result))
	if err != nil {
		log.WithGenerationID(gen.ID).ErrorWithErr("failed to complete generation", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record generation result"})
		return
	}

	metrics.GenerationsCompletedTotal.WithLabelValues(genType, models.GenerationStatusCompleted).Inc()
	api.log.LogGenerationEvent(completed.ID, genType, model, completed.Status)

	if genType == models.GenerationTypeImage && api.queue != nil {
		if urls := imageURLsFromResult(result); len(urls) > 0 {
			task := &queue.ArchiveTask{
				GenerationID: completed.ID,
				UserID:       userID,
				ImageURLs:    urls,
			}
			if err := api.queue.PublishArchiveTask(ctx, task); err != nil {
				log.WithGenerationID(completed.ID).ErrorWithErr("failed to publish archive task", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"generation": completed})
}

// settleFailure marks the generation failed and returns the quota unit
func (api *API) settleFailure(ctx context.Context, gen *models.Generation, userID string, callErr error) {
	log := api.log.WithUserID(userID).WithGenerationID(gen.ID)

	failure, _ := json.Marshal(gin.H{"error": callErr.Error()})
	failed, err := api.repo.CompleteGeneration(ctx, gen.ID, models.GenerationStatusFailed, models.Document(failure))
	if err != nil {
		log.ErrorWithErr("failed to mark generation failed", err)
	} else {
		*gen = *failed
	}

	if err := api.repo.RefundQuota(ctx, userID); err != nil {
		log.ErrorWithErr("failed to refund quota", err)
	}

	log.ErrorWithErr("provider call failed", callErr)
	api.log.LogGenerationEvent(gen.ID, gen.Type, gen.Model, models.GenerationStatusFailed)
}

// imageURLsFromResult extracts hosted image URLs from a provider response
func imageURLsFromResult(result json.RawMessage) []string {
	var payload struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil
	}

	var urls []string
	for _, item := range payload.Data {
		if item.URL != "" {
			urls = append(urls, item.URL)
		}
	}
	return urls
}

// listGenerations returns the caller's generation history
func (api *API) listGenerations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	limit, offset := paginationParams(c, 20, 100)

	gens, err := api.repo.ListGenerationsByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.log.WithUserID(userID).ErrorWithErr("failed to list generations", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list generations"})
		return
	}

	if gens == nil {
		gens = []*models.Generation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"generations": gens,
		"limit":       limit,
		"offset":      offset,
	})
}

// getGeneration returns one generation owned by the caller
func (api *API) getGeneration(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	gen, err := api.repo.GetGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
			return
		}
		api.log.ErrorWithErr("failed to get generation", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get generation"})
		return
	}

	// Other users' generations are indistinguishable from missing ones
	if gen.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"generation": gen})
}

// serveImage streams an archived generation image
func (api *API) serveImage(c *gin.Context) {
	file, contentType, err := api.images.Open(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	defer file.Close()

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, -1, contentType, file, nil)
}

// paginationParams parses limit/offset query parameters
func paginationParams(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return limit, offset
}

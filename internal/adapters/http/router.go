package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/compliance-navigator/internal/config"
	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
	"github.com/kirillkom/compliance-navigator/internal/core/usecase"
	"github.com/kirillkom/compliance-navigator/internal/observability/metrics"
)

const (
	sourceUpload = "upload"
	sourceReport = "report"

	maxChatBodyBytes = 1 << 20
	statusTimeout    = 3 * time.Second
)

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
	}
}

func WithLogger(logger *slog.Logger) RouterOption {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithModelStatus enables GET /v1/model/status for the named model.
func WithModelStatus(model string, checker ports.HealthChecker) RouterOption {
	return func(rt *Router) {
		rt.modelName = model
		rt.modelCheck = checker
	}
}

// WithCacheStatus adds the extraction cache to the status report.
func WithCacheStatus(checker ports.HealthChecker) RouterOption {
	return func(rt *Router) {
		rt.cacheCheck = checker
	}
}

type Router struct {
	cfg        config.Config
	analyzer   ports.DocumentAnalyzer
	chat       ports.DocumentChat
	agent      ports.AgentRouter
	renderer   ports.ComplianceReportRenderer
	metrics    *metrics.HTTPServerMetrics
	logger     *slog.Logger
	limits     uploadLimits
	modelName  string
	modelCheck ports.HealthChecker
	cacheCheck ports.HealthChecker
}

func NewRouter(
	cfg config.Config,
	analyzer ports.DocumentAnalyzer,
	chat ports.DocumentChat,
	agent ports.AgentRouter,
	renderer ports.ComplianceReportRenderer,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:      cfg,
		analyzer: analyzer,
		chat:     chat,
		agent:    agent,
		renderer: renderer,
		logger:   slog.Default(),
		limits: uploadLimits{
			maxFileBytes: cfg.UploadMaxFileBytes,
			maxFiles:     cfg.UploadMaxFiles,
		},
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.limits.maxFileBytes <= 0 {
		rt.limits.maxFileBytes = 10 << 20
	}
	if rt.limits.maxFiles <= 0 {
		rt.limits.maxFiles = 5
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	wait := time.Duration(rt.cfg.BackpressureWaitMillis) * time.Millisecond
	gated := func(h http.HandlerFunc) http.Handler {
		return backpressureMiddleware(h, rt.cfg.MaxInFlightUploads, wait, rt.recordRejection)
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/documents/supported-types", rt.supportedTypes)
	api.Handle("POST /v1/documents/upload", gated(rt.uploadDocuments))
	api.Handle("POST /v1/documents/chat-upload", gated(rt.chatUpload))
	api.Handle("POST /v1/documents/report", gated(rt.complianceReport))
	api.HandleFunc("POST /v1/chat", rt.chatMessage)
	if rt.modelCheck != nil {
		api.HandleFunc("GET /v1/model/status", rt.modelStatus)
	}

	var limiter *rate.Limiter
	if rt.cfg.RateLimitRPS > 0 {
		burst := rt.cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rt.cfg.RateLimitRPS), burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", rateLimitMiddleware(api, limiter, rt.recordRejection))

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler, rt.logger)
	return requestIDMiddleware(handler)
}

func (rt *Router) recordRejection(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dependencyStatus struct {
	Available bool   `json:"available"`
	Model     string `json:"model,omitempty"`
	Error     string `json:"error,omitempty"`
}

type modelStatusResponse struct {
	Success bool              `json:"success"`
	Ollama  dependencyStatus  `json:"ollama"`
	Cache   *dependencyStatus `json:"cache,omitempty"`
	Message string            `json:"message"`
}

// modelStatus answers 200 and reports availability in the body.
func (rt *Router) modelStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	resp := modelStatusResponse{
		Success: true,
		Ollama:  checkDependency(ctx, rt.modelCheck),
		Message: "Ollama not available",
	}
	resp.Ollama.Model = rt.modelName
	if resp.Ollama.Available {
		resp.Message = "Ollama is ready!"
	}
	if rt.cacheCheck != nil {
		cache := checkDependency(ctx, rt.cacheCheck)
		resp.Cache = &cache
	}
	writeJSON(w, http.StatusOK, resp)
}

func checkDependency(ctx context.Context, checker ports.HealthChecker) dependencyStatus {
	if err := checker.Ping(ctx); err != nil {
		return dependencyStatus{Error: err.Error()}
	}
	return dependencyStatus{Available: true}
}

type supportedTypesResponse struct {
	SupportedTypes struct {
		Images      []string `json:"images"`
		Documents   []string `json:"documents"`
		MaxFileSize string   `json:"maxFileSize"`
		MaxFiles    int      `json:"maxFiles"`
	} `json:"supportedTypes"`
	Examples map[string]string `json:"examples"`
}

func (rt *Router) supportedTypes(w http.ResponseWriter, _ *http.Request) {
	var resp supportedTypesResponse
	resp.SupportedTypes.Images = []string{}
	resp.SupportedTypes.Documents = []string{}
	for _, ext := range usecase.SupportedExtensions() {
		if ext == ".pdf" || ext == ".txt" {
			resp.SupportedTypes.Documents = append(resp.SupportedTypes.Documents, ext)
			continue
		}
		resp.SupportedTypes.Images = append(resp.SupportedTypes.Images, ext)
	}
	resp.SupportedTypes.MaxFileSize = formatSize(rt.limits.maxFileBytes)
	resp.SupportedTypes.MaxFiles = rt.limits.maxFiles
	resp.Examples = map[string]string{
		"GST Certificate":   "Upload GST registration certificate (PDF or image)",
		"PAN Card":          "Upload PAN card (image format)",
		"Aadhaar Card":      "Upload Aadhaar card (image format)",
		"Bank Statement":    "Upload bank statement (PDF)",
		"Business License":  "Upload business license (PDF or image)",
		"MSME Registration": "Upload Udyam registration certificate (PDF or image)",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, rt.limits)
	if err != nil {
		writeError(w, err)
		return
	}

	batch := rt.analyzer.AnalyzeFiles(r.Context(), sourceUpload, upload.files)
	writeJSON(w, http.StatusOK, batch)
}

func (rt *Router) chatUpload(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, rt.limits)
	if err != nil {
		writeError(w, err)
		return
	}

	profile, err := decodeProfile(upload.values["userProfile"])
	if err != nil {
		writeError(w, err)
		return
	}

	result := rt.chat.ChatWithDocuments(r.Context(), ports.ChatWithDocumentsRequest{
		Message: upload.values["message"],
		Profile: profile,
		Intent:  upload.values["userIntent"],
		Files:   upload.files,
	})
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) complianceReport(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, rt.limits)
	if err != nil {
		writeError(w, err)
		return
	}

	batch := rt.analyzer.AnalyzeFiles(r.Context(), sourceReport, upload.files)
	combined := usecase.Aggregate(batch.Results)

	body, err := rt.renderer.Render(batch, combined)
	if err != nil {
		rt.logger.Error("report.render.failed",
			"request_id", requestIDFromContext(r.Context()),
			"batch_id", batch.BatchID,
			"error", err,
		)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", rt.renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rt.renderer.FileName()))
	w.Header().Set("X-Batch-Id", batch.BatchID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type chatRequest struct {
	Message             string                  `json:"message"`
	UserProfile         *domain.BusinessProfile `json:"userProfile"`
	DocumentContext     *domain.DocumentContext `json:"documentContext"`
	ConversationContext string                  `json:"conversationContext"`
	Language            string                  `json:"language"`
	Intent              string                  `json:"intent"`
}

func (rt *Router) chatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode chat request", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Message is required",
			Message: "Please provide a message",
		})
		return
	}

	resp := rt.agent.Route(r.Context(), domain.RoutingContext{
		Message:             req.Message,
		Profile:             req.UserProfile,
		Documents:           req.DocumentContext,
		ConversationSummary: req.ConversationContext,
		Language:            req.Language,
		DeclaredIntent:      req.Intent,
	})
	writeJSON(w, http.StatusOK, resp)
}

// decodeProfile parses the JSON-encoded profile sent as a form value.
func decodeProfile(raw string) (*domain.BusinessProfile, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var profile domain.BusinessProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, invalidForm("userProfile must be a JSON object")
	}
	return &profile, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

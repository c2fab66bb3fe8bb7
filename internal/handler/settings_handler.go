package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"touchline/backend/internal/network"
	"touchline/backend/internal/service"
)

// proxyTestURL is fetched through the AI proxy to check reachability.
const proxyTestURL = "https://captive.apple.com/"

type SettingsHandler struct {
	service       service.SettingsService
	clientFactory *network.ClientFactory
}

// Request/Response types

type aiSettingsPayload struct {
	Provider        string `json:"provider"`
	APIKey          string `json:"apiKey"`
	BaseURL         string `json:"baseUrl"`
	Model           string `json:"model"`
	Thinking        bool   `json:"thinking"`
	ThinkingBudget  int    `json:"thinkingBudget"`
	ReasoningEffort string `json:"reasoningEffort"`
	RateLimit       int    `json:"rateLimit"`
}

type aiTestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type networkTestResponse struct {
	Success bool   `json:"success"`
	Proxy   string `json:"proxy,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewSettingsHandler(service service.SettingsService, clientFactory *network.ClientFactory) *SettingsHandler {
	return &SettingsHandler{service: service, clientFactory: clientFactory}
}

func (h *SettingsHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	g.GET("/settings/ai", h.GetAISettings, guards.Admin)
	g.PUT("/settings/ai", h.UpdateAISettings, guards.Admin)
	g.POST("/settings/ai/test", h.TestAI, guards.Admin)
	g.POST("/settings/network/test", h.TestNetworkProxy, guards.Admin)
}

// GetAISettings returns the AI configuration.
// @Summary Get AI settings
// @Description Get the AI provider configuration with masked API keys
// @Tags settings
// @Produce json
// @Success 200 {object} aiSettingsPayload
// @Failure 500 {object} errorResponse
// @Router /settings/ai [get]
func (h *SettingsHandler) GetAISettings(c echo.Context) error {
	settings, err := h.service.GetAISettings(c.Request().Context())
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to get settings"})
	}
	return c.JSON(http.StatusOK, aiSettingsPayload(*settings))
}

// UpdateAISettings updates the AI configuration.
// @Summary Update AI settings
// @Description Update the AI provider configuration. A masked or empty API key keeps the stored key.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body aiSettingsPayload true "AI settings"
// @Success 200 {object} aiSettingsPayload
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /settings/ai [put]
func (h *SettingsHandler) UpdateAISettings(c echo.Context) error {
	var req aiSettingsPayload
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	settings := service.AISettings(req)
	if err := h.service.SetAISettings(c.Request().Context(), &settings); err != nil {
		return writeServiceError(c, err)
	}

	// Return updated settings (with masked keys)
	return h.GetAISettings(c)
}

// TestAI tests the AI connection.
// @Summary Test AI connection
// @Description Test the AI provider connection with a "Hello world" message
// @Tags settings
// @Accept json
// @Produce json
// @Param config body aiSettingsPayload true "AI test configuration"
// @Success 200 {object} aiTestResponse
// @Failure 400 {object} errorResponse
// @Router /settings/ai/test [post]
func (h *SettingsHandler) TestAI(c echo.Context) error {
	var req aiSettingsPayload
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	if req.Provider == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "provider is required"})
	}
	if req.Model == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "model is required"})
	}

	settings := service.AISettings(req)
	response, err := h.service.TestAI(c.Request().Context(), &settings)
	if err != nil {
		return c.JSON(http.StatusOK, aiTestResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, aiTestResponse{
		Success: true,
		Message: response,
	})
}

// TestNetworkProxy checks the configured AI proxy.
// @Summary Test AI proxy
// @Tags settings
// @Produce json
// @Success 200 {object} networkTestResponse
// @Router /settings/network/test [post]
func (h *SettingsHandler) TestNetworkProxy(c echo.Context) error {
	proxy := h.clientFactory.ProxyURL()
	if proxy == "" {
		return c.JSON(http.StatusOK, networkTestResponse{
			Success: true,
			Message: "Proxy is disabled, direct connection will be used",
		})
	}

	if err := h.clientFactory.TestProxy(c.Request().Context(), proxyTestURL); err != nil {
		return c.JSON(http.StatusOK, networkTestResponse{
			Success: false,
			Proxy:   network.RedactProxyURL(proxy),
			Error:   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, networkTestResponse{
		Success: true,
		Proxy:   network.RedactProxyURL(proxy),
		Message: "Proxy connection successful",
	})
}

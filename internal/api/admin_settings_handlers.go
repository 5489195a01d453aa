package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/settings",
		Summary:     "Get settings",
		Description: "Returns provider flags, limits and API keys as stored",
		Tags:        []string{"Admin"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/settings",
		Summary:     "Update settings",
		Description: "Applies a partial update. Omitted fields keep their stored values; provider flags merge by name.",
		Tags:        []string{"Admin"},
	}, s.handleUpdateSettings)
}

// SettingsOutput contains the stored settings.
type SettingsOutput struct {
	Body *domain.Settings
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}

// UpdateSettingsInput contains a partial settings update.
type UpdateSettingsInput struct {
	Body service.SettingsUpdate
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Update(ctx, &input.Body)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}

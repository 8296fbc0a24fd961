package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"modelhub-sdk/models"
)

type ModelService struct {
	client ClientInterface
}

func NewModelService(client ClientInterface) *ModelService {
	return &ModelService{
		client: client,
	}
}

// List retrieves the published models
func (s *ModelService) List(ctx context.Context) ([]*models.ModelListItem, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var items []*models.ModelListItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return items, nil
}

// Get retrieves one model with its endpoints and examples
func (s *ModelService) Get(ctx context.Context, modelID string) (*models.Model, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/models/"+url.PathEscape(modelID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var model models.Model
	if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if model.ID == "" {
		model.ID = modelID
	}

	return &model, nil
}

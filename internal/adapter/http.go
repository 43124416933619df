package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/internal/utils"
	"github.com/selamgebre/birrsync/models"
)

type httpRemoteStore struct {
	client   *utils.HTTPClient
	registry *registry.Registry
	token    string

	logger *logger.Logger
}

// remoteEntityDTO is the wire shape of one entity record.
type remoteEntityDTO struct {
	ID      string        `json:"id"`
	Data    models.Fields `json:"data"`
	Version int64         `json:"version"`
	Deleted bool          `json:"deleted"`
}

type writeRequestDTO struct {
	ID              string        `json:"id,omitempty"`
	Data            models.Fields `json:"data"`
	ExpectedVersion int64         `json:"expectedVersion,omitempty"`
}

// NewHTTPRemoteStore constructs an HTTP/REST implementation of [RemoteStore].
// It normalises and validates the base URL from remoteCfg.BaseURL and
// configures the underlying HTTP client with the resolved base URL, bearer
// token, and request timeout. Entity-type tags are resolved to collection
// paths through reg.
//
// Returns an error if remoteCfg.BaseURL is empty or cannot be parsed as a
// valid URL.
func NewHTTPRemoteStore(remoteCfg config.Remote, reg *registry.Registry, logger *logger.Logger) (RemoteStore, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(remoteCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(remoteCfg.RequestTimeout)

	return &httpRemoteStore{
		client:   client,
		registry: reg,
		token:    strings.TrimSpace(remoteCfg.Token),
		logger:   logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Fetch implements [RemoteStore]. It GETs /api/{collection}/{id}. A 404 is
// mapped to a zero-version snapshot with no error: "the server has never
// held this record" is an expected classification input, not a failure.
func (h *httpRemoteStore) Fetch(ctx context.Context, entityType models.EntityType, entityID string) (models.RemoteEntity, error) {
	path, err := h.entityPath(entityType, entityID)
	if err != nil {
		return models.RemoteEntity{}, err
	}

	resp, err := h.authedRequest(ctx).Get(path)
	if err != nil {
		return models.RemoteEntity{}, fmt.Errorf("%w: fetch request: %s", ErrRemoteUnavailable, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.RemoteEntity{EntityType: entityType, EntityID: entityID}, nil
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteEntity{}, err
	}

	return h.decodeEntity(resp.Body(), entityType, entityID)
}

// Create implements [RemoteStore]. It POSTs the full object to
// /api/{collection}. A 409 means the client-generated ID already exists and
// is returned as [ErrIDCollision] (wrapped).
func (h *httpRemoteStore) Create(ctx context.Context, entityType models.EntityType, entityID string, data models.Fields) (models.RemoteEntity, error) {
	path, err := h.collectionPath(entityType)
	if err != nil {
		return models.RemoteEntity{}, err
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(writeRequestDTO{ID: entityID, Data: data}).
		Post(path)
	if err != nil {
		return models.RemoteEntity{}, fmt.Errorf("%w: create request: %s", ErrRemoteUnavailable, err)
	}
	if resp.StatusCode() == http.StatusConflict {
		return models.RemoteEntity{}, fmt.Errorf("%w: %s/%s", ErrIDCollision, entityType, entityID)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteEntity{}, err
	}

	return h.decodeEntity(resp.Body(), entityType, entityID)
}

// Update implements [RemoteStore]. It PUTs the replacement data together with
// the expected-version precondition to /api/{collection}/{id}. Returns
// [ErrVersionConflict] (wrapped) on 409.
func (h *httpRemoteStore) Update(ctx context.Context, entityType models.EntityType, entityID string, data models.Fields, expectedVersion int64) (models.RemoteEntity, error) {
	path, err := h.entityPath(entityType, entityID)
	if err != nil {
		return models.RemoteEntity{}, err
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(writeRequestDTO{Data: data, ExpectedVersion: expectedVersion}).
		Put(path)
	if err != nil {
		return models.RemoteEntity{}, fmt.Errorf("%w: update request: %s", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteEntity{}, err
	}

	return h.decodeEntity(resp.Body(), entityType, entityID)
}

// Delete implements [RemoteStore]. It sends DELETE /api/{collection}/{id}
// with the expected version as a query parameter. A 404 is treated as
// success: deleting a record the server never held is idempotent. Returns
// [ErrVersionConflict] (wrapped) on 409.
func (h *httpRemoteStore) Delete(ctx context.Context, entityType models.EntityType, entityID string, expectedVersion int64) error {
	path, err := h.entityPath(entityType, entityID)
	if err != nil {
		return err
	}

	resp, err := h.authedRequest(ctx).
		SetQueryParam("expectedVersion", strconv.FormatInt(expectedVersion, 10)).
		Delete(path)
	if err != nil {
		return fmt.Errorf("%w: delete request: %s", ErrRemoteUnavailable, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}

	return mapHTTPError(resp)
}

// Ping implements [RemoteStore]. It GETs /api/health and reports any failure
// as [ErrRemoteUnavailable].
func (h *httpRemoteStore) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("%w: ping: %s", ErrRemoteUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: ping: http %d", ErrRemoteUnavailable, resp.StatusCode())
	}
	return nil
}

func (h *httpRemoteStore) collectionPath(entityType models.EntityType) (string, error) {
	desc, err := h.registry.Lookup(entityType)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadRequest, err)
	}
	return "/api/" + desc.Endpoint, nil
}

func (h *httpRemoteStore) entityPath(entityType models.EntityType, entityID string) (string, error) {
	base, err := h.collectionPath(entityType)
	if err != nil {
		return "", err
	}
	return base + "/" + url.PathEscape(entityID), nil
}

func (h *httpRemoteStore) decodeEntity(body []byte, entityType models.EntityType, entityID string) (models.RemoteEntity, error) {
	var dto remoteEntityDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return models.RemoteEntity{}, errors.Join(
			fmt.Errorf("%w: decode entity response", ErrRemoteUnavailable), err)
	}
	if dto.ID == "" {
		dto.ID = entityID
	}

	return models.RemoteEntity{
		EntityType: entityType,
		EntityID:   dto.ID,
		Data:       dto.Data,
		Version:    dto.Version,
		Deleted:    dto.Deleted,
	}, nil
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if h.token != "" {
		req.SetHeader("Authorization", "Bearer "+h.token)
	}
	return req
}

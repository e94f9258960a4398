package client

// http_client.go = REST calls against the coursehub API server.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"coursehub/internal/microservices/http-api/dto"
	"coursehub/internal/microservices/http-api/models"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// constructor for HTTP client
func NewHTTPClient(apiURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SaveMe records the token's owner as a principal (first call creates it)
func (c *HTTPClient) SaveMe(name, photo string) (*dto.SavePrincipalResponse, error) {
	var out dto.SavePrincipalResponse
	err := c.do(http.MethodPost, "/users", dto.SavePrincipalRequest{Name: name, Photo: photo}, &out)
	return &out, err
}

func (c *HTTPClient) Me() (*models.Principal, error) {
	var out models.Principal
	err := c.do(http.MethodGet, "/users/me", nil, &out)
	return &out, err
}

func (c *HTTPClient) ListUsers() ([]models.Principal, error) {
	var out struct {
		Users []models.Principal `json:"users"`
	}
	err := c.do(http.MethodGet, "/users", nil, &out)
	return out.Users, err
}

func (c *HTTPClient) SetRole(email, role string) (*models.Principal, error) {
	var out models.Principal
	err := c.do(http.MethodPatch, "/users/"+url.PathEscape(email)+"/role", dto.UpdateRoleRequest{Role: role}, &out)
	return &out, err
}

func (c *HTTPClient) ListMessages(room string) (*dto.MessageListResponse, error) {
	var out dto.MessageListResponse
	err := c.do(http.MethodGet, "/course-messages/"+url.PathEscape(room), nil, &out)
	return &out, err
}

func (c *HTTPClient) DeleteMessage(id string) error {
	return c.do(http.MethodDelete, "/course-messages/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) Participants(room string) (*dto.ParticipantListResponse, error) {
	var out dto.ParticipantListResponse
	err := c.do(http.MethodGet, "/course-users/"+url.PathEscape(room), nil, &out)
	return &out, err
}

func (c *HTTPClient) AdminSend(req dto.AdminSendMessageRequest) (*models.ChatMessage, error) {
	var out models.ChatMessage
	err := c.do(http.MethodPost, "/admin/send-message", req, &out)
	return &out, err
}

func (c *HTTPClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close() // Ensure the response body is closed

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(response.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = response.Status
		}
		return &APIError{StatusCode: response.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}

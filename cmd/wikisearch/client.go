package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/wikisearch/internal/models"
	"github.com/hyperjump/wikisearch/internal/search"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// apiCall sends a JSON request to the server and decodes a JSON reply into out.
// Any status other than want is returned as an error carrying the server's message.
func apiCall(method, target string, in interface{}, want int, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := apiCall(http.MethodPost, serverURL+"/api/v1/search", query, http.StatusOK, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

type termReply struct {
	Term        string         `json:"term"`
	Results     []search.Entry `json:"results"`
	Total       int            `json:"total"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

func termViaHTTP(serverURL, term string) (*termReply, error) {
	var reply termReply
	if err := apiCall(http.MethodGet, serverURL+"/api/v1/terms/"+url.PathEscape(term), nil, http.StatusOK, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

type fetchReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func fetchViaHTTP(serverURL, pageURL string) (*fetchReply, error) {
	var reply fetchReply
	if err := apiCall(http.MethodPost, serverURL+"/api/v1/fetch", map[string]string{"url": pageURL}, http.StatusCreated, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents        int64                  `json:"documents"`
	DiskUsageBytes   *int64                 `json:"disk_usage_bytes,omitempty"`
	WatchDirectories []string               `json:"watch_directories,omitempty"`
	Config           map[string]interface{} `json:"config,omitempty"`
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	var s statusResponse
	if err := apiCall(http.MethodGet, serverURL+"/api/v1/status", nil, http.StatusOK, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

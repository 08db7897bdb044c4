package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// JobResponse — job из control API.
type JobResponse struct {
	ID                    string     `json:"id"`
	Status                string     `json:"status"`
	IsRunning             bool       `json:"is_running"`
	LastRunTime           *time.Time `json:"last_run_time,omitempty"`
	NextRunTime           *time.Time `json:"next_run_time,omitempty"`
	RetriesAttempted      int        `json:"retries_attempted"`
	ExecutionCount        int64      `json:"execution_count"`
	LastExecutionDuration string     `json:"last_execution_duration,omitempty"`
	LastError             string     `json:"last_error,omitempty"`
}

// TriggerResponse — ответ на POST /jobs/{id}/trigger.
type TriggerResponse struct {
	Triggered bool        `json:"triggered"`
	Job       JobResponse `json:"job"`
}

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент для control API планировщика.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API по адресу baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListJobs возвращает снимки всех job'ов.
func (c *Client) ListJobs() ([]JobResponse, error) {
	var jobs []JobResponse
	err := c.get("/jobs", &jobs)
	return jobs, err
}

// GetJob возвращает снимок job'а по id.
func (c *Client) GetJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.get("/jobs/"+id, &job)
	return &job, err
}

// PauseJob приостанавливает job.
func (c *Client) PauseJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/jobs/"+id+"/pause", &job)
	return &job, err
}

// ResumeJob возобновляет приостановленный job.
func (c *Client) ResumeJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/jobs/"+id+"/resume", &job)
	return &job, err
}

// StopJob останавливает job.
func (c *Client) StopJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/jobs/"+id+"/stop", &job)
	return &job, err
}

// EnableJob включает job и сбрасывает его счётчик retries.
func (c *Client) EnableJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/jobs/"+id+"/enable", &job)
	return &job, err
}

// DisableJob отключает job вручную.
func (c *Client) DisableJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/jobs/"+id+"/disable", &job)
	return &job, err
}

// TriggerJob запускает job немедленно, если он сейчас может быть запущен.
func (c *Client) TriggerJob(id string) (*TriggerResponse, error) {
	var trigger TriggerResponse
	err := c.post("/jobs/"+id+"/trigger", &trigger)
	return &trigger, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, result)
}

func (c *Client) post(path string, result any) error {
	return c.doData(http.MethodPost, path, result)
}

func (c *Client) doData(method, path string, result any) error {
	resp, err := c.do(method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string) (*http.Response, error) {
	var bodyReader io.Reader
	if method == http.MethodPost {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}

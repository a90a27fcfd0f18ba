package restclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
)

// UseNumber mantém preços e quantidades como texto exato até a validação
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Client consulta tabelas expostas por uma API compatível com PostgREST
type Client interface {
	Select(ctx context.Context, table string, query url.Values) ([]map[string]any, error)
}

type RESTClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg config.Source) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RESTClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.RestURL,
		apiKey:  cfg.RestAPIKey,
	}
}

// StatusError indica resposta diferente de 200 da API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("requisição falhou com status %d: %s", e.StatusCode, e.Body)
}

func (c *RESTClient) Select(ctx context.Context, table string, query url.Values) ([]map[string]any, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("erro ao analisar a URL base: %w", err)
	}
	endpoint.Path = path.Join(endpoint.Path, "/rest/v1", table)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a requisição: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a requisição: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("erro ao decodificar a resposta: %w", err)
	}

	return rows, nil
}

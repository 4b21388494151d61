package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/resilience"
	"go.uber.org/zap"
)

const defaultNotionVersion = "2022-06-28"

// NotionSink creates one page per record in a Notion database
type NotionSink struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
	version    string
	logger     *zap.Logger
	now        func() time.Time
}

// NewNotionSink creates a sink for the given database
func NewNotionSink(httpClient *http.Client, baseURL, token, databaseID, version string, logger *zap.Logger) *NotionSink {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if version == "" {
		version = defaultNotionVersion
	}
	return &NotionSink{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		databaseID: databaseID,
		version:    version,
		logger:     logger,
		now:        time.Now,
	}
}

// Name identifies the sink
func (s *NotionSink) Name() string {
	return "notion"
}

// Save creates the page for a record
func (s *NotionSink) Save(ctx context.Context, record *core.EmailRecord) error {
	row := NewRow(record, s.now())
	body := map[string]any{
		"parent":     map[string]string{"database_id": s.databaseID},
		"properties": notionProperties(row),
	}
	if err := s.do(ctx, http.MethodPost, "/pages", body); err != nil {
		return fmt.Errorf("failed to create page for %s: %w", row.MessageID, err)
	}
	return nil
}

// Ping runs a database search to check the token
func (s *NotionSink) Ping(ctx context.Context) error {
	body := map[string]any{
		"filter":    map[string]string{"property": "object", "value": "database"},
		"page_size": 1,
	}
	return s.do(ctx, http.MethodPost, "/search", body)
}

func (s *NotionSink) do(ctx context.Context, method, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", s.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(data, &apiErr)

	err = fmt.Errorf("notion API error: status %d, code %q: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests &&
		resp.StatusCode != http.StatusConflict {
		return resilience.Permanent(err)
	}
	return err
}

func notionProperties(row *Row) map[string]any {
	props := map[string]any{
		"Email Subject":     map[string]any{"title": richText(row.Subject)},
		"Received Date":     map[string]any{"date": map[string]string{"start": row.ReceivedAt.Format(time.RFC3339)}},
		"Language":          selectValue(row.Language),
		"Summary":           map[string]any{"rich_text": richText(row.Summary)},
		"Commands":          multiSelect(row.Commands),
		"Tone":              selectValue(row.Tone),
		"Team Tags":         multiSelect(row.TeamTags),
		"Confidence Score":  map[string]any{"number": row.ConfidenceScore},
		"Action Status":     selectValue(row.ActionStatus),
		"Reply Draft 1":     map[string]any{"rich_text": richText(row.DraftProfessional)},
		"Reply Draft 2":     map[string]any{"rich_text": richText(row.DraftFriendly)},
		"Processing Status": selectValue(row.ProcessingStatus),
		"Processed At":      map[string]any{"date": map[string]string{"start": row.ProcessedAt.Format(time.RFC3339)}},
	}
	if row.SenderEmail != "" {
		props["Sender"] = map[string]any{"email": row.SenderEmail}
	}
	return props
}

func richText(content string) []map[string]any {
	return []map[string]any{{"text": map[string]string{"content": content}}}
}

func selectValue(name string) map[string]any {
	return map[string]any{"select": map[string]string{"name": name}}
}

func multiSelect(names []string) map[string]any {
	options := make([]map[string]string, len(names))
	for i, n := range names {
		options[i] = map[string]string{"name": n}
	}
	return map[string]any{"multi_select": options}
}

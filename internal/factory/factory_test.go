package factory

import (
	"context"
	"testing"

	"github.com/mikey/llm-mail-triage/internal/adapters/sink"
	"github.com/mikey/llm-mail-triage/internal/adapters/source"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(values map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestSinkFactory(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]any
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{name: "memory default", values: map[string]any{}, wantName: "memory"},
		{name: "disabled", values: map[string]any{"sink.type": "none"}, wantNil: true},
		{name: "sqlite", values: map[string]any{"sink.type": "sqlite", "sink.sqlite_path": ":memory:"}, wantName: "sqlite"},
		{name: "redis", values: map[string]any{"sink.type": "redis"}, wantName: "redis"},
		{name: "notion without token", values: map[string]any{"sink.type": "notion"}, wantErr: true},
		{name: "notion", values: map[string]any{
			"sink.type": "notion", "sink.notion.token": "t", "sink.notion.database_id": "db",
		}, wantName: "notion"},
		{name: "unknown", values: map[string]any{"sink.type": "postgres"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSinkFactory(testConfig(tt.values), zap.NewNop()).CreateRecordSink()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, s)
				return
			}
			require.NotNil(t, s)
			assert.Equal(t, tt.wantName, s.Name())
			if stopper, ok := s.(interface{ Stop() }); ok {
				stopper.Stop()
			}
		})
	}
}

func TestSinkFactory_SQLiteType(t *testing.T) {
	cfg := testConfig(map[string]any{"sink.type": "sqlite", "sink.sqlite_path": ":memory:"})
	s, err := NewSinkFactory(cfg, zap.NewNop()).CreateRecordSink()
	require.NoError(t, err)
	sqlSink, ok := s.(*sink.SQLSink)
	require.True(t, ok)
	sqlSink.Stop()
}

func TestSourceFactory(t *testing.T) {
	ctx := context.Background()

	src, frontend, err := NewSourceFactory(testConfig(map[string]any{
		"source.type":         "maildir",
		"source.maildir.path": t.TempDir(),
	}), zap.NewNop()).CreateMessageSource(ctx)
	require.NoError(t, err)
	assert.IsType(t, &source.MaildirSource{}, src)
	assert.Nil(t, frontend)

	src, frontend, err = NewSourceFactory(testConfig(map[string]any{
		"source.type": "smtp",
	}), zap.NewNop()).CreateMessageSource(ctx)
	require.NoError(t, err)
	assert.IsType(t, &source.SMTPInbox{}, src)
	assert.NotNil(t, frontend)

	_, _, err = NewSourceFactory(testConfig(map[string]any{
		"source.type":                    "gmail",
		"source.gmail.credentials_file": "/nonexistent/credentials.json",
	}), zap.NewNop()).CreateMessageSource(ctx)
	assert.Error(t, err)

	_, _, err = NewSourceFactory(testConfig(map[string]any{
		"source.type": "imap",
	}), zap.NewNop()).CreateMessageSource(ctx)
	assert.Error(t, err)
}

func TestLLMFactory(t *testing.T) {
	logger := zap.NewNop()

	cfg := testConfig(map[string]any{"llm.provider": "openai", "openai.api_key": "sk-test"})
	client, err := NewLLMFactory(cfg, logger, NewRetrier(cfg, logger)).CreateLLMClient()
	require.NoError(t, err)
	assert.Equal(t, "closed", client.State())

	cfg = testConfig(map[string]any{"llm.provider": "openai"})
	_, err = NewLLMFactory(cfg, logger, NewRetrier(cfg, logger)).CreateLLMClient()
	assert.Error(t, err)

	cfg = testConfig(map[string]any{"llm.provider": "llama"})
	_, err = NewLLMFactory(cfg, logger, NewRetrier(cfg, logger)).CreateLLMClient()
	assert.Error(t, err)
}

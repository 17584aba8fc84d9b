package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_MAX_RETRIES", "not-a-number")

	cfg, _ := Load()
	require.NotNil(t, cfg)
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 2, cfg.AIMaxRetries)
	assert.Equal(t, 60*time.Second, cfg.WSPongWait)
	assert.Equal(t, "pod.events", cfg.AMQPExchange)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WS_PONG_WAIT_SECONDS", "5")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:1234/")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, _ := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.WSPongWait)
	assert.Equal(t, "http://localhost:1234", cfg.OpenAIBaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

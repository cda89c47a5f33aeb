package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstance(t *testing.T) {
	clear1 := setEnv("HT_CONFIG_FILE", "testdata/config.yaml")
	defer clear1()
	clear2 := setEnv("HT_GAME_BIG_BLIND", "100")
	defer clear2()

	a := assert.New(t)
	cfg := Instance()
	a.Equal("redis://redis.test:6379", cfg.Redis.URL)
	a.Equal(50, cfg.Game.SmallBlind)
	a.Equal(100, cfg.Game.BigBlind)

	// ensure that it's only loaded once
	_ = os.Setenv("HT_GAME_BIG_BLIND", "200")
	// ensure we aren't using a pointer
	cfg.Game.BigBlind = 0
	cfg = Instance()
	a.Equal(100, cfg.Game.BigBlind)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clear := setEnv("HT_CONFIG_FILE", "testdata/does-not-exist.yaml")
	defer clear()

	assert.NoError(t, Load())
	assert.Equal(t, "redis://localhost:6379", Instance().Redis.URL)
}

func setEnv(key, val string) func() {
	orig := os.Getenv(key)
	_ = os.Setenv(key, val)
	return func() {
		if orig == "" {
			_ = os.Unsetenv(key)
		} else {
			_ = os.Setenv(key, orig)
		}
	}
}

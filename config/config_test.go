package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, "horse_racing", cfg.DBName)
	assert.Equal(t, 10, cfg.ConnectionLimit)
	assert.True(t, cfg.WaitForConnections)
	assert.Equal(t, 0, cfg.QueueLimit)
	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.Development())
	assert.Empty(t, cfg.TLSDomains)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASS", "legacy-secret")
	t.Setenv("DB_CONNECTION_LIMIT", "4")
	t.Setenv("DB_WAIT_FOR_CONNECTIONS", "false")
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "Development")
	t.Setenv("TLS_DOMAINS", " racing.example.com , ,www.racing.example.com")

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := load(v)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "legacy-secret", cfg.DBPassword)
	assert.Equal(t, 4, cfg.ConnectionLimit)
	assert.False(t, cfg.WaitForConnections)
	assert.Equal(t, ":8080", cfg.Port)
	assert.True(t, cfg.Development())
	assert.Equal(t, []string{"racing.example.com", "www.racing.example.com"}, cfg.TLSDomains)
}

func TestLoadRejectsInvalidPool(t *testing.T) {
	v := viper.New()
	v.Set("DB_CONNECTION_LIMIT", 0)
	v.Set("DB_QUEUE_LIMIT", -1)

	_, err := load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ConnectionLimit")
	assert.Contains(t, err.Error(), "QueueLimit")
}

func TestLoadAdminAuthNeedsSecret(t *testing.T) {
	v := viper.New()
	v.Set("ADMIN_AUTH", true)

	_, err := load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSecret must be set")

	v.Set("JWT_SECRET", "s3cret")
	cfg, err := load(v)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), cfg.JWTKey())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "racing", DBPassword: "pw", DBHost: "localhost", DBPort: "3306", DBName: "horse_racing"}
	assert.Equal(t, "racing:pw@tcp(localhost:3306)/horse_racing", cfg.DSN())

	cfg.MySQLDSN = "u:p@tcp(other:3307)/x"
	assert.Equal(t, "u:p@tcp(other:3307)/x", cfg.DSN())
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
log_level: debug
admin:
  user: admin
  pass: secret
storage:
  sql_db: postgres://localhost/storefront
broker:
  seed_brokers: [localhost:9092]
  schema_registry_urls: [http://localhost:8081]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, minimalYAML))
		require.NoError(t, err)

		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPServerAddr)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
		assert.Equal(t, 5, cfg.Storage.ConnectAttempts)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Broker.SeedBrokers)
		assert.Equal(t, "storefront-catalog-events", cfg.Broker.Topics.CatalogEvents)
		assert.False(t, cfg.Broker.CatalogView)
		assert.False(t, cfg.Broker.TLS.Enabled())
	})

	t.Run("Example", func(t *testing.T) {
		cfg, err := LoadFile("config.example.yaml")
		require.NoError(t, err)
		assert.True(t, cfg.Broker.CatalogView)
		assert.Len(t, cfg.Broker.SeedBrokers, 2)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("STOREFRONT_HTTP_SERVER_ADDR", ":9090")
		t.Setenv("STOREFRONT_BROKER_SEED_BROKERS", "a:9092,b:9092")
		t.Setenv("STOREFRONT_BROKER_CATALOG_VIEW", "true")
		t.Setenv("STOREFRONT_STORAGE_CONNECT_ATTEMPTS", "2")

		cfg, err := LoadFile(writeConfig(t, minimalYAML))
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.HTTPServerAddr)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Broker.SeedBrokers)
		assert.True(t, cfg.Broker.CatalogView)
		assert.Equal(t, 2, cfg.Storage.ConnectAttempts)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, minimalYAML+"sql_db: legacy\n"))
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		t.Setenv("STOREFRONT_STORAGE_DRIVER", "sqlite")
		_, err := LoadFile(writeConfig(t, minimalYAML))
		assert.ErrorContains(t, err, "storage.driver")
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.HTTPServerAddr = ":8080"
		c.Admin.User = "admin"
		c.Admin.Pass = "secret"
		c.Storage.Driver = DriverMongoDB
		c.Storage.MongoURI = "mongodb://localhost:27017"
		c.Broker.SeedBrokers = []string{"localhost:9092"}
		c.Broker.SchemaRegistryURLs = []string{"http://localhost:8081"}
		return c
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.Storage.MongoURI = ""
	assert.ErrorContains(t, c.Validate(), "storage.mongo_uri")

	c = valid()
	c.Admin.Pass = ""
	assert.ErrorContains(t, c.Validate(), "admin.pass")

	c = valid()
	c.Broker.TLS.CA = "/certs/ca.pem"
	assert.ErrorContains(t, c.Validate(), "broker.tls")
}

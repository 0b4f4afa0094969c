package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
)

const (
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

type admin struct {
	User  string `mapstructure:"user"`
	Pass  string `mapstructure:"pass"`
	Email string `mapstructure:"email"`
}

type storage struct {
	Driver          string `mapstructure:"driver"`
	SQLDB           string `mapstructure:"sql_db"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	ConnectAttempts int    `mapstructure:"connect_attempts"`
}

type topics struct {
	ProductsImport string `mapstructure:"products_import"`
	CatalogEvents  string `mapstructure:"catalog_events"`
}

type consumers struct {
	ProductsSaverGroup string `mapstructure:"products_saver_group"`
	CatalogGroup       string `mapstructure:"catalog_group"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t brokerTLS) Enabled() bool {
	return t.CA != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	CatalogView        bool      `mapstructure:"catalog_view"`
	TLS                brokerTLS `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type Config struct {
	LogLevel        slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr  string        `mapstructure:"http_server_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Admin           admin         `mapstructure:"admin"`
	Storage         storage       `mapstructure:"storage"`
	Broker          broker        `mapstructure:"broker"`
}

var defaults = map[string]any{
	"log_level":                             "info",
	"http_server_addr":                      ":8080",
	"shutdown_timeout":                      "5s",
	"admin.user":                            "",
	"admin.pass":                            "",
	"admin.email":                           "admin@shopsphere.com",
	"storage.driver":                        DriverPostgres,
	"storage.sql_db":                        "",
	"storage.mongo_uri":                     "",
	"storage.mongo_database":                "storefront",
	"storage.connect_attempts":              5,
	"broker.seed_brokers":                   []string{},
	"broker.schema_registry_urls":           []string{},
	"broker.catalog_view":                   false,
	"broker.tls.ca":                         "",
	"broker.tls.cert":                       "",
	"broker.tls.key":                        "",
	"broker.topics.products_import":         "storefront-products-import",
	"broker.topics.catalog_events":          "storefront-catalog-events",
	"broker.consumers.products_saver_group": "storefront-products-saver",
	"broker.consumers.catalog_group":        "storefront-catalog",
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML file, applies STOREFRONT_* environment
// overrides and validates the result.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTPServerAddr == "" {
		errs = append(errs, errors.New("http_server_addr is required"))
	}

	if c.Admin.User == "" || c.Admin.Pass == "" {
		errs = append(errs, errors.New("admin.user and admin.pass are required"))
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.SQLDB == "" {
			errs = append(errs, errors.New("storage.sql_db is required"))
		}
	case DriverMongoDB:
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("storage.mongo_uri is required"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"storage.driver must be %q or %q, got %q",
			DriverPostgres, DriverMongoDB, c.Storage.Driver,
		))
	}

	if len(c.Broker.SeedBrokers) == 0 {
		errs = append(errs, errors.New("broker.seed_brokers is required"))
	}
	if len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls is required"))
	}

	tls := c.Broker.TLS
	if tls.Enabled() && (tls.Cert == "" || tls.Key == "") {
		errs = append(errs, errors.New("broker.tls needs ca, cert and key"))
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	ShutdownTimeout=%q
	AdminUser=%q

	Storage:
	Driver=%q
	MongoDatabase=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	CatalogView=%t
	TLS=%t
	Topics:
		ProductsImport=%q
		CatalogEvents=%q
	Consumers:
		ProductsSaverGroup=%q
		CatalogGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.ShutdownTimeout,
		c.Admin.User,
		c.Storage.Driver,
		c.Storage.MongoDatabase,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.CatalogView,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.ProductsImport,
		c.Broker.Topics.CatalogEvents,
		c.Broker.Consumers.ProductsSaverGroup,
		c.Broker.Consumers.CatalogGroup,
	)
}

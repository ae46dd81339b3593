package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Browser holds the attach settings for the operator's browser.
	Browser BrowserConfig `mapstructure:",squash"`

	// Listing describes the order listing page markup.
	Listing ListingConfig `mapstructure:",squash"`

	// Detail describes the order detail page markup.
	Detail DetailConfig `mapstructure:",squash"`

	// Scrape holds the run parameters.
	Scrape ScrapeConfig `mapstructure:",squash"`

	// Redis holds the optional run history store.
	Redis RedisConfig `mapstructure:",squash"`
}

// BrowserConfig holds the settings used to attach to an already running browser.
type BrowserConfig struct {
	// ControlURL is a DevTools websocket URL. When set, host/port discovery is skipped.
	ControlURL string `mapstructure:"BROWSER_CONTROL_URL"`
	// DebugHost is the host of the browser remote debugging endpoint.
	DebugHost string `mapstructure:"BROWSER_DEBUG_HOST" default:"localhost"`
	// DebugPort is the remote debugging port the browser was started with.
	DebugPort int `mapstructure:"BROWSER_DEBUG_PORT" default:"9222"`
	// ConnectTimeout bounds endpoint discovery and the attach handshake.
	ConnectTimeout time.Duration `mapstructure:"BROWSER_CONNECT_TIMEOUT" default:"10s"`
	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `mapstructure:"BROWSER_NAVIGATION_TIMEOUT" default:"30s"`
	// ReleaseAfterScrape drops the session once a scrape finishes, successful or not.
	ReleaseAfterScrape bool `mapstructure:"BROWSER_RELEASE_AFTER_SCRAPE" default:"true"`
	// CloseOnRelease also shuts the browser down when the session is released.
	CloseOnRelease bool `mapstructure:"BROWSER_CLOSE_ON_RELEASE"`
}

// ListingConfig holds the selectors of the filtered orders listing.
type ListingConfig struct {
	// URL is the listing page opened when a session is connected.
	URL string `mapstructure:"LISTING_URL" default:"https://admin.weedmaps.com/orders"`
	// ReadySelector matches a row of the rendered listing table.
	ReadySelector string `mapstructure:"LISTING_READY_SELECTOR" default:".table__TableRow-sc-xx3up4-13"`
	// LinkSelector matches the anchors pointing at order detail pages.
	LinkSelector string `mapstructure:"LISTING_LINK_SELECTOR" default:"//a[contains(@class, 'order-id-link__IDLink-sc-a7pvg2-0')]"`
	// ReadyTimeout bounds the wait for the listing rows.
	ReadyTimeout time.Duration `mapstructure:"LISTING_READY_TIMEOUT" default:"30s"`
}

// DetailConfig holds the selectors of the order detail page.
type DetailConfig struct {
	// ReadySelector marks a detail page as rendered.
	ReadySelector string `mapstructure:"DETAIL_READY_SELECTOR" default:"//h4[contains(@class, 'styles__DetailRecipientName')]"`
	// ReadyTimeout bounds the wait for ReadySelector.
	ReadyTimeout time.Duration `mapstructure:"DETAIL_READY_TIMEOUT" default:"20s"`
	// OrderNumberSelector locates the order number label.
	OrderNumberSelector string `mapstructure:"DETAIL_ORDER_NUMBER_SELECTOR" default:"//span[contains(@class, 'styles__OrderId')]"`
	// OrderNumberPrefix is the literal label stripped from the order number.
	OrderNumberPrefix string `mapstructure:"DETAIL_ORDER_NUMBER_PREFIX" default:"Order #"`
	// CustomerNameSelector locates the customer name heading.
	CustomerNameSelector string `mapstructure:"DETAIL_CUSTOMER_NAME_SELECTOR" default:"//h4[contains(@class, 'styles__DetailRecipientName')]"`
	// PhoneSelector locates the phone number value.
	PhoneSelector string `mapstructure:"DETAIL_PHONE_SELECTOR" default:"//p[contains(text(), 'Phone number')]/following-sibling::div"`
	// EmailSelector locates the email address value.
	EmailSelector string `mapstructure:"DETAIL_EMAIL_SELECTOR" default:"//p[contains(text(), 'Email address')]/following-sibling::p"`
}

// ScrapeConfig holds the default run parameters.
type ScrapeConfig struct {
	// MaxItems caps the references processed per run. 0 scrapes everything.
	MaxItems int `mapstructure:"SCRAPE_MAX_ITEMS"`
	// OutputPath is the CSV file records are appended to.
	OutputPath string `mapstructure:"OUTPUT_PATH" default:"filtered_orders_data.csv"`
	// PersistAttempts is how many times the final write is attempted.
	PersistAttempts int `mapstructure:"SCRAPE_PERSIST_ATTEMPTS" default:"2"`
}

// RedisConfig holds the run history store settings.
type RedisConfig struct {
	// URL is a redis:// URL. Run history is disabled when empty.
	URL string `mapstructure:"REDIS_URL"`
	// RunHistoryTTL expires stored run summaries. 0 keeps them.
	RunHistoryTTL time.Duration `mapstructure:"RUN_HISTORY_TTL"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate checks value ranges that tags cannot express.
func (c *AppConfig) validate() error {
	if c.Scrape.MaxItems < 0 {
		return fmt.Errorf("invalid configuration: SCRAPE_MAX_ITEMS must not be negative, got %d", c.Scrape.MaxItems)
	}
	if c.Scrape.PersistAttempts < 1 {
		return fmt.Errorf("invalid configuration: SCRAPE_PERSIST_ATTEMPTS must be at least 1, got %d", c.Scrape.PersistAttempts)
	}
	if c.Browser.ControlURL == "" && c.Browser.DebugPort <= 0 {
		return errors.New("invalid configuration: either BROWSER_CONTROL_URL or BROWSER_DEBUG_PORT is required")
	}
	return nil
}

// processTags iterates over the struct fields, binds env keys and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}

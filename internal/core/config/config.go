package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"
	"unicode"

	"github.com/spf13/viper"
)

// ErrNoProductsFile is returned when the configured products file is absent.
var ErrNoProductsFile = errors.New("products file not found")

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
	// ServerPort is the port where the status API will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Shop holds the remote shop endpoints and fetch settings.
	Shop ShopConfig `mapstructure:",squash"`

	// Buyer holds the identity fields sent with an order.
	Buyer BuyerConfig `mapstructure:",squash"`

	// Watch holds the polling loop settings.
	Watch WatchConfig `mapstructure:",squash"`

	// Price holds the locale rules for parsing shop prices.
	Price PriceConfig `mapstructure:",squash"`

	// Email holds the SMTP notification settings.
	Email EmailConfig `mapstructure:",squash"`

	// Redis holds the optional redis notification channel settings.
	Redis RedisConfig `mapstructure:",squash"`

	// Proxy holds the optional upstream proxy settings.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// ShopConfig holds the remote shop connection details.
type ShopConfig struct {
	// URL is the base URL of the shop, without a trailing slash.
	URL string `mapstructure:"SHOP_URL" required:"true"`
	// ProductPath is the path prefix of a product page; the article
	// number and ".htm" are appended to it.
	ProductPath string `mapstructure:"SHOP_PRODUCT_PATH" default:"/catalog/tovar"`
	// QuickOrderPath is the path of the quick-order endpoint.
	QuickOrderPath string `mapstructure:"SHOP_QUICK_ORDER_PATH" default:"/ajax/quick_order_small.php"`
	// SessionCookie is the name of the session cookie the shop issues.
	SessionCookie string `mapstructure:"SESSION_COOKIE_NAME" default:"PHPSESSID"`
	// Fetcher selects the page fetcher implementation: "http" or "browser".
	Fetcher string `mapstructure:"FETCHER" default:"http"`
}

// BuyerConfig holds the identity fields required by the ordering flow.
type BuyerConfig struct {
	// Name is the buyer display name sent with the order.
	Name string `mapstructure:"BUYER_NAME" required:"true"`
	// Phone is the buyer contact number; validated and stripped to digits.
	Phone string `mapstructure:"BUYER_PHONE" required:"true"`
}

// WatchConfig holds the polling loop settings.
type WatchConfig struct {
	// PollInterval is the pause between poll cycles of one tracker.
	PollInterval time.Duration `mapstructure:"POLL_INTERVAL" default:"5s"`
	// RenotifyInterval is the suppression window for repeated
	// price-above-ceiling notifications.
	RenotifyInterval time.Duration `mapstructure:"RENOTIFY_INTERVAL" default:"1h"`
	// ProductsFile is the YAML file listing tracked products.
	ProductsFile string `mapstructure:"PRODUCTS_FILE" default:"products.yaml"`
}

// PriceConfig holds the locale rules for parsing shop prices.
type PriceConfig struct {
	// DecimalSep is the decimal separator used by the shop.
	DecimalSep string `mapstructure:"PRICE_DECIMAL_SEP" default:"."`
	// ThousandsSep is the digit group separator used by the shop.
	ThousandsSep string `mapstructure:"PRICE_THOUSANDS_SEP" default:" "`
	// Currency is the currency marker stripped from price strings.
	Currency string `mapstructure:"PRICE_CURRENCY" default:"руб."`
}

// EmailConfig holds the SMTP notification settings.
type EmailConfig struct {
	// Enabled toggles the email notification sink.
	Enabled bool `mapstructure:"EMAIL_ENABLED" default:"false"`
	// SMTPHost is the SMTP server hostname.
	SMTPHost string `mapstructure:"SMTP_HOST"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `mapstructure:"SMTP_PORT" default:"587"`
	// Password is the SMTP account password.
	Password string `mapstructure:"SMTP_PASSWORD"`
	// From is the sender address, also used as the SMTP user.
	From string `mapstructure:"EMAIL_FROM"`
	// FromDisplay is the sender display name.
	FromDisplay string `mapstructure:"EMAIL_FROM_DISPLAY" default:"shopwatch"`
	// To is the recipient address; ignored when ToSameAsFrom is set.
	To string `mapstructure:"EMAIL_TO"`
	// ToSameAsFrom sends notifications back to the sender address.
	ToSameAsFrom bool `mapstructure:"EMAIL_TO_SAME_AS_FROM" default:"true"`
	// NotifyAboveCeiling toggles price-above-ceiling emails.
	NotifyAboveCeiling bool `mapstructure:"NOTIFY_ABOVE_CEILING" default:"true"`
}

// RedisConfig holds the optional redis notification channel settings.
type RedisConfig struct {
	// URL is the redis connection URL; empty disables the redis sink.
	URL string `mapstructure:"REDIS_URL"`
	// Channel is the pub/sub channel notifications are published to.
	Channel string `mapstructure:"REDIS_CHANNEL" default:"shopwatch:events"`
}

// ProxyConfig holds the optional upstream proxy settings.
type ProxyConfig struct {
	// Enabled toggles routing shop traffic through the proxy.
	Enabled bool `mapstructure:"PROXY_ENABLED" default:"false"`
	// Hostname is the proxy server hostname.
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	// Port is the proxy server port.
	Port int `mapstructure:"PROXY_PORT"`
	// Username is the proxy auth username.
	Username string `mapstructure:"PROXY_USERNAME"`
	// Password is the proxy auth password.
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// ProductEntry is one tracked product as configured in the products file.
type ProductEntry struct {
	// Art is the shop article number identifying the product.
	Art int `mapstructure:"art"`
	// MaxPrice is the acceptable price ceiling for the product.
	MaxPrice float64 `mapstructure:"max_price"`
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

	phone, err := ValidatePhone(config.Buyer.Phone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUYER_PHONE: %w", err)
	}
	config.Buyer.Phone = phone

	return &config, nil
}

// LoadProducts reads the tracked product list from a YAML file with a
// top-level "products" key.
func LoadProducts(path string) ([]ProductEntry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProductsFile, path)
	}

	var entries []ProductEntry
	if err := v.UnmarshalKey("products", &entries); err != nil {
		return nil, fmt.Errorf("unable to decode products file: %w", err)
	}

	for _, e := range entries {
		if e.Art <= 0 {
			return nil, fmt.Errorf("invalid article number in products file: %d", e.Art)
		}
		if e.MaxPrice <= 0 {
			return nil, fmt.Errorf("invalid max price for article %d", e.Art)
		}
	}

	return entries, nil
}

// ValidatePhone strips a contact number down to its digits.
// Numbers longer than 12 digits are rejected.
func ValidatePhone(raw string) (string, error) {
	digits := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return "", errors.New("no digits in phone number")
	}
	if len(digits) > 12 {
		return "", fmt.Errorf("phone number too long: %d digits", len(digits))
	}
	return string(digits), nil
}

// processTags iterates over the struct fields and sets default values in Viper.
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
			v.BindEnv(key)
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

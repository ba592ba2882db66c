package container

import "fmt"

// Options is filled by humacli from flags and SERVICE_* environment variables.
type Options struct {
	Port             int    `default:"8888"                    help:"Port to listen on"                                           short:"p"`
	BaseURL          string `help:"Public URL scan links are built on, defaults to http://localhost:<port>"`
	CodeLength       int    `default:"8"                       help:"Length of generated short codes"                             short:"c"`
	RedisAddr        string `help:"Redis server address, state stays in process when empty"  short:"r"`
	DatabaseURL      string `help:"PostgreSQL connection string, records stay in memory when empty" short:"d"`
	CodeScanLimit    int    `default:"1000"                    help:"Scans allowed per short code per hour"`
	IPScanLimit      int    `default:"100"                     help:"Requests allowed per client IP per minute"`
	GeoEndpoint      string `default:"http://ip-api.com/json/" help:"IP geolocation endpoint, empty disables lookups"`
	GeoTimeoutMs     int    `default:"2000"                    help:"Geolocation lookup timeout in milliseconds"`
	LogFormat        string `default:"json"                    help:"Log format: json or console"`
	EmbeddedConsumer bool   `default:"true"                    help:"Record analytics inside the server process"`
	ConsumerGroup    string `default:"qr-analytics"            help:"Redis stream consumer group for analytics"`
}

// PublicURL returns the base URL scan links point to.
func (o *Options) PublicURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

func (o *Options) redisEnabled() bool {
	return o.RedisAddr != ""
}

func (o *Options) postgresEnabled() bool {
	return o.DatabaseURL != ""
}

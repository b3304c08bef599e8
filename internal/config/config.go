package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
		DataDir      string        `yaml:"data_dir" default:"."`
	} `yaml:"server"`

	// Queue tunes the durable job queue: bounded retries, polling cadence,
	// and the reaper's stale-job reclamation schedule.
	Queue struct {
		MaxAttempts     int           `yaml:"max_attempts" default:"3"`
		PollInterval    time.Duration `yaml:"poll_interval" default:"100ms"`
		DequeueWait     time.Duration `yaml:"dequeue_wait" default:"5s"`
		StaleTimeout    time.Duration `yaml:"stale_timeout" default:"120s"`
		ReaperEnabled   bool          `yaml:"reaper_enabled" default:"true"`
		ReaperInterval  time.Duration `yaml:"reaper_interval" default:"30s"`
	} `yaml:"queue"`

	Workers struct {
		PoolSize   int           `yaml:"pool_size" default:"10"`
		QueueSize  int           `yaml:"queue_size" default:"100"`
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
	} `yaml:"workers"`

	BackgroundTasks struct {
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks" default:"50"`
		TaskTimeout        time.Duration `yaml:"task_timeout" default:"300s"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge         time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	// Planner configures the LLM client the Orchestrator uses to turn a
	// mission goal into a search plan.
	Planner struct {
		Provider    string        `yaml:"provider" default:"anthropic"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"claude-3-7-sonnet-latest"`
		MaxTokens   int           `yaml:"max_tokens" default:"2048"`
		Temperature float32       `yaml:"temperature" default:"0.2"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"planner"`

	// Orchestrator configures the discovery step: the search-results page
	// template the default LinkExtractor fetches and parses for candidate
	// URLs, one query at a time.
	Orchestrator struct {
		SearchURLTemplate string `yaml:"search_url_template" default:"https://www.bing.com/search?q=%s"`
	} `yaml:"orchestrator"`

	Scraper struct {
		UserAgent      string        `yaml:"user_agent"`
		Proxies        []string      `yaml:"proxies"`
		MaxRetries     int           `yaml:"max_retries" default:"3"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
		HeadlessMode   bool          `yaml:"headless_mode" default:"true"`
		StealthMode    bool          `yaml:"stealth_mode" default:"true"`
		Captcha        struct {
			Provider        string        `yaml:"provider" default:"2captcha"`
			APIKey          string        `yaml:"api_key"`
			Timeout         time.Duration `yaml:"timeout" default:"120s"`
			EnableAutoSolve bool          `yaml:"enable_auto_solve" default:"true"`
		} `yaml:"captcha"`
	} `yaml:"scraper"`

	BrowserPool struct {
		MaxInstances       int           `yaml:"max_instances" default:"5"`
		MaxIdleTime        time.Duration `yaml:"max_idle_time" default:"5m"`
		AcquisitionTimeout time.Duration `yaml:"acquisition_timeout" default:"30s"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval" default:"5m"`
	} `yaml:"browser_pool"`

	Firecrawl struct {
		APIKey     string        `yaml:"api_key"`
		APIURL     string        `yaml:"api_url" default:"https://api.firecrawl.dev"`
		Version    string        `yaml:"version" default:"v1"`
		Timeout    time.Duration `yaml:"timeout" default:"60s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		Formats    []string      `yaml:"formats" default:"markdown"`
	} `yaml:"firecrawl"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	DigitalOcean struct {
		Spaces struct {
			BucketURL       string `yaml:"bucket_url"`
			CDNEndpoint     string `yaml:"cdn_endpoint"`
			AccessKeyID     string `yaml:"access_key_id"`
			AccessKeySecret string `yaml:"access_key_secret"`
			Region          string `yaml:"region" default:"blr1"`
			BucketName      string `yaml:"bucket_name" default:"reaplex-artifacts"`
		} `yaml:"spaces"`
	} `yaml:"digitalocean"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from a YAML file plus environment
// variable overrides, defaults applied first.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.DataDir = "."

	config.Queue.MaxAttempts = 3
	config.Queue.PollInterval = 100 * time.Millisecond
	config.Queue.DequeueWait = 5 * time.Second
	config.Queue.StaleTimeout = 120 * time.Second
	config.Queue.ReaperEnabled = true
	config.Queue.ReaperInterval = 30 * time.Second

	config.Workers.PoolSize = 10
	config.Workers.QueueSize = 100
	config.Workers.Timeout = 30 * time.Second
	config.Workers.MaxRetries = 3

	config.BackgroundTasks.MaxConcurrentTasks = 50
	config.BackgroundTasks.TaskTimeout = 300 * time.Second
	config.BackgroundTasks.CleanupInterval = 1 * time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.Planner.Provider = "anthropic"
	config.Planner.Model = "claude-3-7-sonnet-latest"
	config.Planner.MaxTokens = 2048
	config.Planner.Temperature = 0.2
	config.Planner.Timeout = 30 * time.Second

	config.Orchestrator.SearchURLTemplate = "https://www.bing.com/search?q=%s"

	config.Scraper.MaxRetries = 3
	config.Scraper.RequestTimeout = 30 * time.Second
	config.Scraper.HeadlessMode = true
	config.Scraper.StealthMode = true
	config.Scraper.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	config.Scraper.Captcha.Provider = "2captcha"
	config.Scraper.Captcha.Timeout = 120 * time.Second
	config.Scraper.Captcha.EnableAutoSolve = true

	config.BrowserPool.MaxInstances = 5
	config.BrowserPool.MaxIdleTime = 5 * time.Minute
	config.BrowserPool.AcquisitionTimeout = 30 * time.Second
	config.BrowserPool.CleanupInterval = 5 * time.Minute

	config.Firecrawl.APIURL = "https://api.firecrawl.dev"
	config.Firecrawl.Version = "v1"
	config.Firecrawl.MaxRetries = 3
	config.Firecrawl.Timeout = 60 * time.Second
	config.Firecrawl.Formats = []string{"markdown"}

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.DigitalOcean.Spaces.Region = "blr1"
	config.DigitalOcean.Spaces.BucketName = "reaplex-artifacts"

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()

	return config, nil
}

// loadFromEnv overrides config fields from explicit environment variables.
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Server.DataDir = dataDir
	}

	if apiKey := os.Getenv("PLANNER_API_KEY"); apiKey != "" {
		c.Planner.APIKey = apiKey
	}
	// ANTHROPIC_API_KEY is the convention the anthropic-sdk-go client itself
	// falls back to; accept it here too so a single env var wires both.
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && c.Planner.APIKey == "" {
		c.Planner.APIKey = apiKey
	}

	if provider := os.Getenv("PLANNER_PROVIDER"); provider != "" {
		c.Planner.Provider = provider
	}

	if model := os.Getenv("PLANNER_MODEL"); model != "" {
		c.Planner.Model = model
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if captchaAPIKey := os.Getenv("CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}
	if captchaAPIKey := os.Getenv("2CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}

	if firecrawlAPIKey := os.Getenv("FIRECRAWL_API_KEY"); firecrawlAPIKey != "" {
		c.Firecrawl.APIKey = firecrawlAPIKey
	}
	if firecrawlAPIURL := os.Getenv("FIRECRAWL_API_URL"); firecrawlAPIURL != "" {
		c.Firecrawl.APIURL = firecrawlAPIURL
	}
	if firecrawlVersion := os.Getenv("FIRECRAWL_VERSION"); firecrawlVersion != "" {
		c.Firecrawl.Version = firecrawlVersion
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}
	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if bucketURL := os.Getenv("BUCKET_URL"); bucketURL != "" {
		c.DigitalOcean.Spaces.BucketURL = bucketURL
	}
	if cdnEndpoint := os.Getenv("BUCKET_CDN_ENDPOINT"); cdnEndpoint != "" {
		c.DigitalOcean.Spaces.CDNEndpoint = cdnEndpoint
	}
	if accessKeyID := os.Getenv("BUCKET_ACCESS_KEY_ID"); accessKeyID != "" {
		c.DigitalOcean.Spaces.AccessKeyID = accessKeyID
	}
	if accessKeySecret := os.Getenv("BUCKET_ACCESS_KEY_SECRET"); accessKeySecret != "" {
		c.DigitalOcean.Spaces.AccessKeySecret = accessKeySecret
	}
	if region := os.Getenv("BUCKET_REGION"); region != "" {
		c.DigitalOcean.Spaces.Region = region
	}
	if bucketName := os.Getenv("BUCKET_NAME"); bucketName != "" {
		c.DigitalOcean.Spaces.BucketName = bucketName
	}

	if maxInstances := os.Getenv("BROWSER_POOL_MAX_INSTANCES"); maxInstances != "" {
		if instances, err := strconv.Atoi(maxInstances); err == nil {
			c.BrowserPool.MaxInstances = instances
		}
	}
	if maxIdleTime := os.Getenv("BROWSER_POOL_MAX_IDLE_TIME"); maxIdleTime != "" {
		if duration, err := time.ParseDuration(maxIdleTime); err == nil {
			c.BrowserPool.MaxIdleTime = duration
		}
	}
	if acquisitionTimeout := os.Getenv("BROWSER_POOL_ACQUISITION_TIMEOUT"); acquisitionTimeout != "" {
		if duration, err := time.ParseDuration(acquisitionTimeout); err == nil {
			c.BrowserPool.AcquisitionTimeout = duration
		}
	}

	if staleTimeout := os.Getenv("QUEUE_STALE_TIMEOUT"); staleTimeout != "" {
		if duration, err := time.ParseDuration(staleTimeout); err == nil {
			c.Queue.StaleTimeout = duration
		}
	}
	if maxAttempts := os.Getenv("QUEUE_MAX_ATTEMPTS"); maxAttempts != "" {
		if attempts, err := strconv.Atoi(maxAttempts); err == nil {
			c.Queue.MaxAttempts = attempts
		}
	}
}

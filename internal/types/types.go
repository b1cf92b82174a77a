package types

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	IsMaster() bool
	IsDebugMode() bool
	GetAuthConfig() AuthConfig
	GetCORSConfig() CORSConfig
	GetPerformanceConfig() PerformanceConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetAIServiceConfig() AIServiceConfig
	GetEffectiveServerConfig() ServerConfig
	GetRedisDSN() string
	Validate() error
	DisplayServerConfig()
	ReloadConfig() error
}

// SystemSettings holds all hot-reloadable pipeline tunables. Values live in the
// system_settings table; struct tags drive defaults, validation and the settings API.
type SystemSettings struct {
	// Batch translation
	RefineBatchSize         int `json:"refine_batch_size" default:"5" name:"config.refine_batch_size" category:"config.category.translation" desc:"config.refine_batch_size_desc" validate:"required,min=1,max=50"`
	BatchPauseSeconds       int `json:"batch_pause_seconds" default:"2" name:"config.batch_pause" category:"config.category.translation" desc:"config.batch_pause_desc" validate:"min=0"`
	RateLimitBackoffSeconds int `json:"rate_limit_backoff_seconds" default:"30" name:"config.rate_limit_backoff" category:"config.category.translation" desc:"config.rate_limit_backoff_desc" validate:"required,min=1"`

	// Evaluation loop
	EvalPauseMillis         int `json:"eval_pause_millis" default:"1000" name:"config.eval_pause" category:"config.category.evaluation" desc:"config.eval_pause_desc" validate:"min=0"`
	LanguagePauseSeconds    int `json:"language_pause_seconds" default:"3" name:"config.language_pause" category:"config.category.evaluation" desc:"config.language_pause_desc" validate:"min=0"`
	AIRequestTimeoutSeconds int `json:"ai_request_timeout_seconds" default:"120" name:"config.ai_request_timeout" category:"config.category.evaluation" desc:"config.ai_request_timeout_desc" validate:"required,min=1"`

	// Approval policy
	AutoApproveThreshold int `json:"auto_approve_threshold" default:"85" name:"config.auto_approve_threshold" category:"config.category.approval" desc:"config.auto_approve_threshold_desc" validate:"required,min=0,max=100"`
	NeedsReviewThreshold int `json:"needs_review_threshold" default:"70" name:"config.needs_review_threshold" category:"config.category.approval" desc:"config.needs_review_threshold_desc" validate:"required,min=0,max=100"`
	// VisibilityThresholdPercent is the approval completion ratio, in percent,
	// at which a language becomes visible in the public switcher.
	VisibilityThresholdPercent int `json:"visibility_threshold_percent" default:"95" name:"config.visibility_threshold" category:"config.category.approval" desc:"config.visibility_threshold_desc" validate:"required,min=1,max=100"`

	// Watchdog
	StuckAfterMinutes       int `json:"stuck_after_minutes" default:"10" name:"config.stuck_after" category:"config.category.watchdog" desc:"config.stuck_after_desc" validate:"required,min=1"`
	NoProgressAfterMinutes  int `json:"no_progress_after_minutes" default:"5" name:"config.no_progress_after" category:"config.category.watchdog" desc:"config.no_progress_after_desc" validate:"required,min=1"`
	WatchdogIntervalMinutes int `json:"watchdog_interval_minutes" default:"5" name:"config.watchdog_interval" category:"config.category.watchdog" desc:"config.watchdog_interval_desc" validate:"required,min=1"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	IsMaster                bool   `json:"is_master"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Key string `json:"key"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// PerformanceConfig represents performance configuration
type PerformanceConfig struct {
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// AIServiceConfig points at the external translation/evaluation service.
// ToneOfVoice holds the brand voice guide sent along with refine requests.
type AIServiceConfig struct {
	BaseURL     string `json:"base_url"`
	APIKey      string `json:"api_key"`
	ToneOfVoice string `json:"-"`
}

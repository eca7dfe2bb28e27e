package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Browser   BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Collect   CollectConfig  `yaml:"collect" mapstructure:"collect"`
	Selectors SelectorConfig `yaml:"selectors" mapstructure:"selectors"`
	Journal   JournalConfig  `yaml:"journal" mapstructure:"journal"`
	Log       LogConfig      `yaml:"log" mapstructure:"log"`
}

// BrowserConfig configures the Chrome session.
type BrowserConfig struct {
	Headless  bool   `yaml:"headless" mapstructure:"headless"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	LoginURL  string `yaml:"login_url" mapstructure:"login_url"`
}

// CollectConfig holds the timing and retry knobs of the collection workflow.
type CollectConfig struct {
	DomainMarker         string `yaml:"domain_marker" mapstructure:"domain_marker"`
	DisclosureWaitSecs   int    `yaml:"disclosure_wait_secs" mapstructure:"disclosure_wait_secs"`
	PageSettleSecs       int    `yaml:"page_settle_secs" mapstructure:"page_settle_secs"`
	ClickSettleSecs      int    `yaml:"click_settle_secs" mapstructure:"click_settle_secs"`
	InterRowDelaySecs    int    `yaml:"inter_row_delay_secs" mapstructure:"inter_row_delay_secs"`
	ChallengeTimeoutSecs int    `yaml:"challenge_timeout_secs" mapstructure:"challenge_timeout_secs"`
	ChallengePollSecs    int    `yaml:"challenge_poll_secs" mapstructure:"challenge_poll_secs"`
	ChallengeMaxReloads  int    `yaml:"challenge_max_reloads" mapstructure:"challenge_max_reloads"`
	RowMaxCycles         int    `yaml:"row_max_cycles" mapstructure:"row_max_cycles"`
}

// SelectorConfig maps logical roles to ordered lists of locator strings or
// keywords. Ordering within a list defines fallback precedence. The locator
// strings for a given storefront are configuration data, not algorithm.
type SelectorConfig struct {
	DisclosureControl      []string `yaml:"disclosure_control" mapstructure:"disclosure_control"`
	ChallengeMarkers       []string `yaml:"challenge_markers" mapstructure:"challenge_markers"`
	ChallengeCloseControls []string `yaml:"challenge_close_controls" mapstructure:"challenge_close_controls"`
	InfoContainers         []string `yaml:"info_containers" mapstructure:"info_containers"`
	LabelSelectors         []string `yaml:"label_selectors" mapstructure:"label_selectors"`
	ValueSelectors         []string `yaml:"value_selectors" mapstructure:"value_selectors"`
	PhoneKeywords          []string `yaml:"phone_keywords" mapstructure:"phone_keywords"`
	EmailKeywords          []string `yaml:"email_keywords" mapstructure:"email_keywords"`
	CompletionKeywords     []string `yaml:"completion_keywords" mapstructure:"completion_keywords"`
	PhoneNoise             []string `yaml:"phone_noise" mapstructure:"phone_noise"`
	ChallengeURLPattern    string   `yaml:"challenge_url_pattern" mapstructure:"challenge_url_pattern"`
}

// JournalConfig configures the optional run journal database.
type JournalConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	Disabled bool   `yaml:"disabled" mapstructure:"disabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("journal.path", "storefront_runs.db")

	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	v.SetDefault("browser.login_url", "https://nid.naver.com/nidlogin.login")

	v.SetDefault("collect.domain_marker", "smartstore.naver.com")
	v.SetDefault("collect.disclosure_wait_secs", 10)
	v.SetDefault("collect.page_settle_secs", 2)
	v.SetDefault("collect.click_settle_secs", 1)
	v.SetDefault("collect.inter_row_delay_secs", 2)
	v.SetDefault("collect.challenge_timeout_secs", 60)
	v.SetDefault("collect.challenge_poll_secs", 2)
	v.SetDefault("collect.challenge_max_reloads", 3)
	v.SetDefault("collect.row_max_cycles", 3)

	v.SetDefault("selectors.disclosure_control", []string{
		`button[data-shp-area="fot.sellerinfo"]`,
		`button[data-shp-area-id*="sellerinfo"]`,
	})
	v.SetDefault("selectors.challenge_markers", []string{
		`img#captchaimg`,
		`.captcha_img`,
		`[class*="captcha"]`,
	})
	v.SetDefault("selectors.challenge_close_controls", []string{
		`._1fWxIi4neA`,
		`._1BE8DmNuKn`,
		`button[class*="close"]`,
		`.close_btn`,
	})
	v.SetDefault("selectors.info_containers", []string{
		`dl._3BlyWp6LJv`,
		`dl`,
	})
	v.SetDefault("selectors.label_selectors", []string{`dt`, `._1nqckXI-BW`})
	v.SetDefault("selectors.value_selectors", []string{`dd`, `.EdE67hDR6I`})
	v.SetDefault("selectors.phone_keywords", []string{"고객센터", "전화"})
	v.SetDefault("selectors.email_keywords", []string{"e-mail", "이메일"})
	v.SetDefault("selectors.completion_keywords", []string{"판매자 상세정보", "고객센터"})
	v.SetDefault("selectors.phone_noise", []string{"잘못된 번호 신고", "인증"})
	v.SetDefault("selectors.challenge_url_pattern", "captcha")
}

// requiredRoles lists the selector roles that must be non-empty at startup.
// Completeness is checked here rather than failing lazily mid-run.
var requiredRoles = []struct {
	name string
	get  func(SelectorConfig) []string
}{
	{"disclosure_control", func(s SelectorConfig) []string { return s.DisclosureControl }},
	{"challenge_markers", func(s SelectorConfig) []string { return s.ChallengeMarkers }},
	{"challenge_close_controls", func(s SelectorConfig) []string { return s.ChallengeCloseControls }},
	{"info_containers", func(s SelectorConfig) []string { return s.InfoContainers }},
	{"label_selectors", func(s SelectorConfig) []string { return s.LabelSelectors }},
	{"value_selectors", func(s SelectorConfig) []string { return s.ValueSelectors }},
	{"phone_keywords", func(s SelectorConfig) []string { return s.PhoneKeywords }},
	{"email_keywords", func(s SelectorConfig) []string { return s.EmailKeywords }},
	{"completion_keywords", func(s SelectorConfig) []string { return s.CompletionKeywords }},
}

// Validate checks role completeness and knob sanity.
func (c *Config) Validate() error {
	for _, role := range requiredRoles {
		if len(role.get(c.Selectors)) == 0 {
			return eris.Errorf("config: selector role %q is empty", role.name)
		}
	}
	if c.Selectors.ChallengeURLPattern != "" {
		if _, err := regexp.Compile(c.Selectors.ChallengeURLPattern); err != nil {
			return eris.Wrap(err, "config: compile challenge_url_pattern")
		}
	}
	if c.Collect.DomainMarker == "" {
		return eris.New("config: collect.domain_marker is required")
	}
	if c.Collect.ChallengePollSecs <= 0 {
		return eris.New("config: collect.challenge_poll_secs must be positive")
	}
	if c.Collect.ChallengeTimeoutSecs <= 0 {
		return eris.New("config: collect.challenge_timeout_secs must be positive")
	}
	return nil
}

// WriteExample writes the default configuration to path as YAML. It refuses
// to overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return eris.Wrap(err, "config: unmarshal defaults")
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal example")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "config: write example")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

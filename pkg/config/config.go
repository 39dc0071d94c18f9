package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/stringutils"
)

type DisplayConfig struct {
	// poll interval used by list --watch when no flag value is given
	Interval  time.Duration `yaml:"interval" koanf:"interval"`
	NameWidth int           `yaml:"name_width" koanf:"name_width"`
}

type Configuration struct {
	Clients       map[string]map[string]interface{}
	Filters       map[string]FilterConfiguration
	Notifications NotificationsConfig `yaml:"notifications" koanf:"notifications"`
	Display       DisplayConfig       `yaml:"display" koanf:"display"`
}

/* Vars */

var (
	cfgPath = ""

	Delimiter = "."
	Config    *Configuration
	K         = koanf.New(Delimiter)

	// Internal
	log = logger.GetLogger("cfg")
)

const envPrefix = "TQV__"

/* Public */

func Init(configFilePath string) error {
	// set package variables
	cfgPath = configFilePath
	K = koanf.New(Delimiter)

	// load config
	if err := K.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
		return fmt.Errorf("load file: %w", err)
	}

	// load environment variables
	if err := K.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	// unmarshal config
	Config = &Configuration{}
	if err := K.Unmarshal("", Config); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if Config.Display.Interval <= 0 {
		Config.Display.Interval = 2 * time.Second
	}
	if Config.Display.NameWidth <= 0 {
		Config.Display.NameWidth = 40
	}

	log.Debugf("Loaded %d client(s) and %d filter(s)", len(Config.Clients), len(Config.Filters))
	return nil
}

func ShowUsing() {
	log.Infof("Using %s = %q", stringutils.LeftJust("CONFIG", " ", 10), cfgPath)
}

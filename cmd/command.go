package cmd

// Contains CLI helpers, shared between the o2dq commands.

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/dqworkflows/o2dq/logger"
	"github.com/dqworkflows/o2dq/settings"
)

var (
	Warning = color.New(color.FgRed)
	Notice  = color.New(color.FgGreen)
	Debug   = color.New(color.FgBlue)
)

// SettingsEnv names the environment variable pointing to the settings file.
const SettingsEnv = "O2DQ_SETTINGS"

// Command holds the options every command accepts.
type Command struct {
	LogLevel string `long:"debug" value-name:"LEVEL" description:"log level: NOTSET, DEBUG, INFO, WARNING, ERROR or CRITICAL"`
	LogFile  bool   `long:"logFile" description:"also write the log into <command>.log"`
	Settings string `long:"settings" env:"O2DQ_SETTINGS" value-name:"PATH" description:"settings file, o2dq.toml in the working or home directory by default"`
}

// SetupLogging configures the standard logrus logger for the named command. The --debug level
// wins over the settings one. The returned closer releases the log file.
func (c *Command) SetupLogging(name string, s settings.Log) (io.Closer, error) {
	f := logger.LoggerFactory{
		Level:  s.Level,
		Format: s.Format,
		Fields: s.Fields,
	}
	if c.LogLevel != "" {
		f.Level = c.LogLevel
	}
	if f.Level == "" {
		f.Level = "info"
	}
	if c.LogFile {
		f.File = name + ".log"
	}
	return f.Apply(logrus.StandardLogger())
}

// SettingsPath finds the settings file named on the command line, before the command line is
// parsed, or through SettingsEnv.
func SettingsPath(args []string) string {
	for i, a := range args {
		switch {
		case a == "--":
			return os.Getenv(SettingsEnv)
		case a == "--settings" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "--settings="):
			return strings.TrimPrefix(a, "--settings=")
		}
	}
	return os.Getenv(SettingsEnv)
}

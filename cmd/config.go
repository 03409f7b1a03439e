package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "quill"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	noCacheFlagName     = "no-cache"
	includeFlagName     = "include"
	excludeFlagName     = "exclude"
	runParallelFlagName = "parallel"
	failFastFlagName    = "fail-fast"
	verboseFlagName     = "verbose"
	dryRunFlagName      = "dry-run"
	modeFlagName        = "mode"
	backendsFlagName    = "backends"

	includeConfigKey     = "paths.include"
	excludeConfigKey     = "paths.exclude"
	runParallelConfigKey = "run.parallel"
	failFastConfigKey    = "run.fail_fast"

	checkBackendsKey       = "check.backends"
	checkPriorityKey       = "check.priority"
	checkDevCommentsKey    = "check.dev_comments"
	checkStringLiteralsKey = "check.string_literals"
	checkExitCodeKey       = "check.exit_code"
	checkIgnorePatternsKey = "check.ignore_patterns"

	dictionaryPathsKey          = "dictionary.paths"
	dictionaryWordsKey          = "dictionary.words"
	dictionaryMaxSuggestionsKey = "dictionary.max_suggestions"
	dictionaryMaxDistanceKey    = "dictionary.max_distance"

	grammarRulesKey    = "grammar.rules"
	grammarDisabledKey = "grammar.disabled"

	remoteEndpointKey  = "remote.endpoint"
	remoteLanguageKey  = "remote.language"
	remoteTimeoutKey   = "remote.timeout"
	remoteRetriesKey   = "remote.retries"
	remoteParallelKey  = "remote.parallel"
	remoteCacheSizeKey = "remote.cache_size"
	remoteDisabledKey  = "remote.disabled_rules"

	fixModeKey   = "fix.mode"
	fixDryRunKey = "fix.dry_run"

	cachePathKey = "cache.path"

	fixModeInteractive = "interactive"
	fixModeBatch       = "batch"

	defaultNoCache        = false
	defaultRunParallel    = 0
	defaultFailFast       = false
	defaultDevComments    = false
	defaultStringLiterals = false
	defaultExitCode       = 1
	defaultMaxSuggestions = 5
	defaultMaxDistance    = 2
	defaultRemoteLanguage = "en-US"
	defaultRemoteTimeout  = 10 * time.Second
	defaultRemoteRetries  = 2
	defaultRemoteParallel = 2
	defaultRemoteCache    = 256
	defaultFixMode        = fixModeInteractive
	defaultCachePath      = ".quill-cache.db"

	envPrefix = "QUILL"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".quill.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var (
	defaultBackends        = []string{"dictionary", "grammar"}
	defaultPriority        = []string{"dictionary", "grammar", "remote"}
	defaultDictionaryPaths = []string{"/usr/share/hunspell/en_US.dic", "/usr/share/dict/words"}
)

var globalLogger *slog.Logger

// configErr holds the error from reading quill.yaml. Commands that check
// files refuse to run with a config they could not read.
var configErr error

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	configErr = readConfig(viper.GetViper())
}

// readConfig loads the config file into v. A missing file is not an error.
func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(noCacheFlagName, defaultNoCache)
	viper.SetDefault(includeConfigKey, []string{})
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(failFastConfigKey, defaultFailFast)

	viper.SetDefault(checkBackendsKey, defaultBackends)
	viper.SetDefault(checkPriorityKey, defaultPriority)
	viper.SetDefault(checkDevCommentsKey, defaultDevComments)
	viper.SetDefault(checkStringLiteralsKey, defaultStringLiterals)
	viper.SetDefault(checkExitCodeKey, defaultExitCode)
	viper.SetDefault(checkIgnorePatternsKey, []string{})

	viper.SetDefault(dictionaryPathsKey, defaultDictionaryPaths)
	viper.SetDefault(dictionaryWordsKey, []string{})
	viper.SetDefault(dictionaryMaxSuggestionsKey, defaultMaxSuggestions)
	viper.SetDefault(dictionaryMaxDistanceKey, defaultMaxDistance)

	viper.SetDefault(grammarRulesKey, "")
	viper.SetDefault(grammarDisabledKey, []string{})

	viper.SetDefault(remoteEndpointKey, "")
	viper.SetDefault(remoteLanguageKey, defaultRemoteLanguage)
	viper.SetDefault(remoteTimeoutKey, defaultRemoteTimeout.String())
	viper.SetDefault(remoteRetriesKey, defaultRemoteRetries)
	viper.SetDefault(remoteParallelKey, defaultRemoteParallel)
	viper.SetDefault(remoteCacheSizeKey, defaultRemoteCache)
	viper.SetDefault(remoteDisabledKey, []string{})

	viper.SetDefault(fixModeKey, defaultFixMode)
	viper.SetDefault(fixDryRunKey, false)

	viper.SetDefault(cachePathKey, defaultCachePath)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

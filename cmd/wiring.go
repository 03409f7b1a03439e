package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vmihailenco/msgpack/v5"

	"quill.dev/pkg/quill/internal/adapter"
	"quill.dev/pkg/quill/internal/controller"
	"quill.dev/pkg/quill/internal/domain"
	"quill.dev/pkg/quill/internal/domain/checkers"
	m "quill.dev/pkg/quill/internal/model"
)

// settings is the part of the configuration that changes findings. Its hash
// keys the result cache.
type settings struct {
	Tool            string
	Backends        []string
	Priority        []string
	DevComments     bool
	StringLiterals  bool
	IgnorePatterns  []string
	DictionaryPaths []string
	Words           []string
	MaxSuggestions  int
	MaxDistance     int
	GrammarRules    string
	GrammarDisabled []string
	RemoteEndpoint  string
	RemoteLanguage  string
	RemoteDisabled  []string
	Files           []string
}

func currentSettings() settings {
	return settings{
		Tool:            toolVersion(),
		Backends:        viper.GetStringSlice(checkBackendsKey),
		Priority:        viper.GetStringSlice(checkPriorityKey),
		DevComments:     viper.GetBool(checkDevCommentsKey),
		StringLiterals:  viper.GetBool(checkStringLiteralsKey),
		IgnorePatterns:  viper.GetStringSlice(checkIgnorePatternsKey),
		DictionaryPaths: viper.GetStringSlice(dictionaryPathsKey),
		Words:           viper.GetStringSlice(dictionaryWordsKey),
		MaxSuggestions:  viper.GetInt(dictionaryMaxSuggestionsKey),
		MaxDistance:     viper.GetInt(dictionaryMaxDistanceKey),
		GrammarRules:    viper.GetString(grammarRulesKey),
		GrammarDisabled: viper.GetStringSlice(grammarDisabledKey),
		RemoteEndpoint:  viper.GetString(remoteEndpointKey),
		RemoteLanguage:  viper.GetString(remoteLanguageKey),
		RemoteDisabled:  viper.GetStringSlice(remoteDisabledKey),
		Files:           hashInputFiles(viper.GetStringSlice(dictionaryPathsKey), viper.GetString(grammarRulesKey)),
	}
}

// hashInputFiles returns "path=sha256" for every existing dictionary, affix
// and rule file so edits to their contents invalidate cached results.
func hashInputFiles(dictionaries []string, rules string) []string {
	var paths []string

	for _, p := range dictionaries {
		paths = append(paths, p)
		if strings.HasSuffix(p, ".dic") {
			paths = append(paths, strings.TrimSuffix(p, ".dic")+".aff")
		}
	}

	if rules != "" {
		paths = append(paths, rules)
	}

	sources := adapter.NewLocalSourceFSAdapter()
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		sum, err := sources.HashFile(m.Path(p))
		if err != nil {
			continue
		}

		out = append(out, p+"="+sum)
	}

	return out
}

// fingerprint hashes the settings so cached results are dropped whenever the
// configuration that produced them changes.
func (s settings) fingerprint() (string, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

func toolVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "unknown"
	}

	return info.Main.Version
}

// parseDetectors turns configured backend names into detectors, dropping
// duplicates.
func parseDetectors(names []string) ([]m.Detector, error) {
	out := make([]m.Detector, 0, len(names))
	seen := map[m.Detector]bool{}

	for _, name := range names {
		d, err := m.ParseDetector(name)
		if err != nil {
			return nil, err
		}

		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	return out, nil
}

// buildCheckers creates the enabled backends. A dictionary that cannot be
// found disables the dictionary backend with a warning; every other
// construction failure is fatal.
func buildCheckers(enabled []m.Detector) ([]checkers.Checker, []error, error) {
	var (
		backends []checkers.Checker
		warnings []error
	)

	for _, d := range enabled {
		switch d {
		case m.DetectorDictionary:
			dict, err := checkers.LoadDictionary(viper.GetStringSlice(dictionaryPathsKey))
			if errors.Is(err, checkers.ErrNoDictionary) {
				slog.Warn("Dictionary backend disabled", "error", err)
				warnings = append(warnings, err)

				continue
			}

			if err != nil {
				return nil, nil, fmt.Errorf("load dictionary: %w", err)
			}

			spelling, err := checkers.NewSpelling(dict, checkers.SpellingConfig{
				MaxSuggestions: viper.GetInt(dictionaryMaxSuggestionsKey),
				MaxDistance:    viper.GetInt(dictionaryMaxDistanceKey),
				Words:          viper.GetStringSlice(dictionaryWordsKey),
				IgnorePatterns: viper.GetStringSlice(checkIgnorePatternsKey),
			})
			if err != nil {
				return nil, nil, fmt.Errorf("dictionary backend: %w", err)
			}

			backends = append(backends, spelling)
		case m.DetectorGrammar:
			grammar, err := checkers.NewGrammar(checkers.GrammarConfig{
				RulesPath: viper.GetString(grammarRulesKey),
				Disabled:  viper.GetStringSlice(grammarDisabledKey),
			})
			if err != nil {
				return nil, nil, fmt.Errorf("grammar backend: %w", err)
			}

			backends = append(backends, grammar)
		case m.DetectorRemote:
			remote, err := checkers.NewLanguageTool(checkers.RemoteConfig{
				Endpoint:       viper.GetString(remoteEndpointKey),
				Language:       viper.GetString(remoteLanguageKey),
				Timeout:        viper.GetDuration(remoteTimeoutKey),
				Retries:        viper.GetInt(remoteRetriesKey),
				DisabledRules:  viper.GetStringSlice(remoteDisabledKey),
				MaxSuggestions: viper.GetInt(dictionaryMaxSuggestionsKey),
				CacheSize:      viper.GetInt(remoteCacheSizeKey),
			})
			if err != nil {
				return nil, nil, fmt.Errorf("remote backend: %w", err)
			}

			backends = append(backends, remote)
		}
	}

	if len(backends) == 0 {
		return nil, warnings, errors.New("no checker backend is available")
	}

	return backends, warnings, nil
}

// newUI picks the interactive TUI only when asked for and stdout is a
// terminal.
func newUI(cmd *cobra.Command, interactive bool) controller.UI {
	if interactive && controller.IsTTY(os.Stdout) {
		return controller.NewTUI(cmd)
	}

	return controller.NewSimpleUI(cmd)
}

// session bundles a workflow with the resources that must be released after
// the command finishes.
type session struct {
	workflow    domain.Workflow
	store       adapter.ResultStore
	fingerprint string
	warnings    []error
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Warn("Failed to close result cache", "error", err)
	}
}

// newSession wires every component from the current configuration.
func newSession(cmd *cobra.Command, interactive bool) (*session, error) {
	if configErr != nil {
		return nil, configErr
	}

	configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

	enabled, err := parseDetectors(viper.GetStringSlice(checkBackendsKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", checkBackendsKey, err)
	}

	priority, err := parseDetectors(viper.GetStringSlice(checkPriorityKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", checkPriorityKey, err)
	}

	backends, warnings, err := buildCheckers(enabled)
	if err != nil {
		return nil, err
	}

	fingerprint, err := currentSettings().fingerprint()
	if err != nil {
		return nil, err
	}

	var store adapter.ResultStore = adapter.NopResultStore{}

	if !viper.GetBool(noCacheFlagName) {
		bolt, err := adapter.NewBoltResultStore(viper.GetString(cachePathKey))
		if err != nil {
			slog.Warn("Result cache disabled", "error", err)
			warnings = append(warnings, err)
		} else {
			store = bolt
		}
	}

	threads := viper.GetInt(runParallelConfigKey)

	wf := domain.NewWorkflow(
		adapter.NewLocalSourceFSAdapter(),
		store,
		newUI(cmd, interactive),
		domain.NewExtractor(adapter.NewLocalGoFileAdapter(), domain.ExtractOptions{
			DevComments:    viper.GetBool(checkDevCommentsKey),
			StringLiterals: viper.GetBool(checkStringLiteralsKey),
		}),
		domain.NewNormalizer(),
		domain.NewOrchestrator(backends, domain.OrchestratorOptions{
			Threads:       threads,
			RemoteThreads: viper.GetInt(remoteParallelKey),
			Priority:      priority,
		}),
		domain.NewReconciler(priority),
		domain.NewApplicator(),
	)

	return &session{
		workflow:    wf,
		store:       store,
		fingerprint: fingerprint,
		warnings:    warnings,
	}, nil
}

// checkArgs collects the shared run arguments from flags and configuration.
func (s *session) checkArgs(args []string) domain.CheckArgs {
	_, isNop := s.store.(adapter.NopResultStore)

	return domain.CheckArgs{
		Paths:       pathsOrDefault(args),
		Include:     viper.GetStringSlice(includeConfigKey),
		Exclude:     viper.GetStringSlice(excludeConfigKey),
		Threads:     viper.GetInt(runParallelConfigKey),
		FailFast:    viper.GetBool(failFastConfigKey),
		UseCache:    !isNop,
		Fingerprint: s.fingerprint,
	}
}

// printWarnings reports configuration warnings that happened before the run.
func (s *session) printWarnings(cmd *cobra.Command) {
	for _, w := range s.warnings {
		cmd.PrintErrf("warning: %v\n", w)
	}
}

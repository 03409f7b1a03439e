package checkers

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	m "quill.dev/pkg/quill/internal/model"
)

const languageToolCheckPath = "/v2/check"

// RemoteConfig describes a LanguageTool-compatible server.
type RemoteConfig struct {
	Endpoint      string
	Language      string
	Timeout       time.Duration
	Retries       int
	DisabledRules []string
	// MaxSuggestions caps replacements per match, 0 keeps all of them.
	MaxSuggestions int
	CacheSize      int
}

type ltReplacement struct {
	Value string `json:"value"`
}

type ltRule struct {
	ID string `json:"id"`
}

type ltMatch struct {
	Message      string          `json:"message"`
	Offset       int             `json:"offset"`
	Length       int             `json:"length"`
	Replacements []ltReplacement `json:"replacements"`
	Rule         ltRule          `json:"rule"`
}

type ltResponse struct {
	Matches []ltMatch `json:"matches"`
}

// LanguageTool sends chunk text to a LanguageTool server. Once the server has
// failed, later calls in the same run fail fast with BackendUnavailable.
type LanguageTool struct {
	client *resty.Client
	cfg    RemoteConfig
	cache  *lru.Cache[[sha256.Size]byte, []ltMatch]
	down   atomic.Bool
}

// NewLanguageTool builds the HTTP client for cfg.
func NewLanguageTool(cfg RemoteConfig) (*LanguageTool, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("remote endpoint is not configured")
	}

	if cfg.Language == "" {
		cfg.Language = "en-US"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}

	cache, err := lru.New[[sha256.Size]byte, []ltMatch](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	client.AddRetryCondition(retryCondition)

	return &LanguageTool{client: client, cfg: cfg, cache: cache}, nil
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	return code >= 500 || code == 429 || code == 408
}

// Detector implements Checker.
func (lt *LanguageTool) Detector() m.Detector {
	return m.DetectorRemote
}

// IsRemote implements Remote.
func (lt *LanguageTool) IsRemote() bool {
	return true
}

// Check implements Checker.
func (lt *LanguageTool) Check(ctx context.Context, chunk *m.CheckableChunk) ([]m.RawSuggestion, error) {
	if strings.TrimSpace(chunk.Text) == "" {
		return nil, nil
	}

	if lt.down.Load() {
		return nil, &m.BackendUnavailable{Detector: m.DetectorRemote, Err: errors.New("disabled after an earlier failure")}
	}

	key := sha256.Sum256([]byte(lt.cfg.Language + "\x00" + chunk.Text))

	matches, ok := lt.cache.Get(key)
	if !ok {
		var err error

		matches, err = lt.fetch(ctx, chunk.Text)
		if err != nil {
			if ctx.Err() == nil {
				lt.down.Store(true)
			}

			return nil, &m.BackendUnavailable{Detector: m.DetectorRemote, Err: err}
		}

		lt.cache.Add(key, matches)
	}

	return lt.translate(chunk, matches), nil
}

func (lt *LanguageTool) fetch(ctx context.Context, text string) ([]ltMatch, error) {
	form := map[string]string{
		"text":     text,
		"language": lt.cfg.Language,
	}

	if len(lt.cfg.DisabledRules) > 0 {
		form["disabledRules"] = strings.Join(lt.cfg.DisabledRules, ",")
	}

	var result ltResponse

	resp, err := lt.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&result).
		Post(languageToolCheckPath)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("server returned %s", resp.Status())
	}

	slog.Debug("LanguageTool response", "matches", len(result.Matches), "duration", resp.Time())

	return result.Matches, nil
}

// translate converts UTF-16 offsets reported by the server into byte ranges.
func (lt *LanguageTool) translate(chunk *m.CheckableChunk, matches []ltMatch) []m.RawSuggestion {
	offsets := utf16Offsets(chunk.Text)

	var out []m.RawSuggestion

	for _, match := range matches {
		end := match.Offset + match.Length
		if match.Offset < 0 || end >= len(offsets) || offsets[match.Offset] < 0 || offsets[end] < 0 {
			slog.Warn("Dropping LanguageTool match outside the text", "path", chunk.Path, "rule", match.Rule.ID)

			continue
		}

		var replacements []string

		for _, r := range match.Replacements {
			if lt.cfg.MaxSuggestions > 0 && len(replacements) == lt.cfg.MaxSuggestions {
				break
			}

			replacements = append(replacements, r.Value)
		}

		out = append(out, m.RawSuggestion{
			Detector:     m.DetectorRemote,
			Range:        m.Range{Start: offsets[match.Offset], End: offsets[end]},
			Message:      match.Message,
			Replacements: replacements,
		})
	}

	return out
}

// utf16Offsets maps each UTF-16 code unit index of s to its byte offset.
// Indexes that fall inside a surrogate pair map to -1.
func utf16Offsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		offsets = append(offsets, i)
		if r >= 0x10000 && r != utf8.RuneError {
			offsets = append(offsets, -1)
		}
	}

	return append(offsets, len(s))
}

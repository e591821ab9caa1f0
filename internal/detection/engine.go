package detection

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

type Result struct {
	RuleID      string
	Description string
	// Path locates the string inside params, e.g. "user.tokens[1]".
	Path string
}

type Engine struct {
	detector *detect.Detector
}

// NewEngine creates a detection engine from a gitleaks TOML rules file, or
// from the gitleaks default rules when rulesPath is empty.
func NewEngine(rulesPath string) (*Engine, error) {
	if rulesPath == "" {
		detector, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load default rules: %w", err)
		}
		return &Engine{detector: detector}, nil
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(rulesPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate config: %w", err)
	}

	return &Engine{
		detector: detect.NewDetector(cfg),
	}, nil
}

// Detect scans every string value inside params, at any depth.
func (e *Engine) Detect(params json.RawMessage) ([]Result, error) {
	var v interface{}
	if err := json.Unmarshal(params, &v); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}

	var results []Result
	e.walk("", v, &results)
	return results, nil
}

func (e *Engine) walk(path string, data interface{}, results *[]Result) {
	switch v := data.(type) {
	case string:
		for _, f := range e.detector.DetectString(v) {
			*results = append(*results, Result{
				RuleID:      f.RuleID,
				Description: f.Description,
				Path:        path,
			})
		}

	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := k
			if path != "" {
				child = path + "." + k
			}
			e.walk(child, v[k], results)
		}

	case []interface{}:
		for i, item := range v {
			e.walk(path+"["+strconv.Itoa(i)+"]", item, results)
		}
	}
}

// Screen implements dispatch.Screener. Each finding is reported as
// "<description> at <path>".
func (e *Engine) Screen(params json.RawMessage) ([]string, error) {
	results, err := e.Detect(params)
	if err != nil {
		return nil, err
	}
	findings := make([]string, 0, len(results))
	for _, r := range results {
		desc := r.Description
		if desc == "" {
			desc = r.RuleID
		}
		if r.Path != "" {
			desc += " at " + r.Path
		}
		findings = append(findings, desc)
	}
	return findings, nil
}

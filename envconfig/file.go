package envconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout. Absent keys leave defaults untouched.
type fileConfig struct {
	Token struct {
		AccessTTL *time.Duration `yaml:"accessTTL"`
		Issuer    *string        `yaml:"issuer"`
		Audience  *string        `yaml:"audience"`
		Leeway    *time.Duration `yaml:"leeway"`
	} `yaml:"token"`
	Password struct {
		Iterations       *int `yaml:"iterations"`
		MaxPasswordBytes *int `yaml:"maxPasswordBytes"`
		Workers          *int `yaml:"workers"`
	} `yaml:"password"`
	RateLimit struct {
		Enabled         *bool          `yaml:"enabled"`
		MaxRequests     *int           `yaml:"maxRequests"`
		Window          *time.Duration `yaml:"window"`
		CleanupInterval *time.Duration `yaml:"cleanupInterval"`
		MaxTrackedIPs   *int           `yaml:"maxTrackedIPs"`
		TrustProxy      *bool          `yaml:"trustProxy"`
		LoginPaths      []string       `yaml:"loginPaths"`
	} `yaml:"rateLimit"`
	Audit struct {
		Enabled    *bool `yaml:"enabled"`
		BufferSize *int  `yaml:"bufferSize"`
		DropIfFull *bool `yaml:"dropIfFull"`
	} `yaml:"audit"`
	Metrics struct {
		Enabled           *bool `yaml:"enabled"`
		LatencyHistograms *bool `yaml:"latencyHistograms"`
	} `yaml:"metrics"`
	AdminPathGuard struct {
		Enabled *bool   `yaml:"enabled"`
		Marker  *string `yaml:"marker"`
	} `yaml:"adminPathGuard"`
	Server struct {
		Port     *string `yaml:"port"`
		RedisURL *string `yaml:"redisURL"`
	} `yaml:"server"`
	Log struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"log"`
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErr(EnvConfigPath, fmt.Sprintf("read %s: %v", path, err))
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, configErr(EnvConfigPath, fmt.Sprintf("parse %s: %v", path, err))
	}
	return &fc, nil
}

func (fc *fileConfig) apply(s *Settings) error {
	c := &s.Engine

	setDuration(&c.Token.AccessTTL, fc.Token.AccessTTL)
	setString(&c.Token.Issuer, fc.Token.Issuer)
	setString(&c.Token.Audience, fc.Token.Audience)
	setDuration(&c.Token.Leeway, fc.Token.Leeway)

	setInt(&c.Password.Iterations, fc.Password.Iterations)
	setInt(&c.Password.MaxPasswordBytes, fc.Password.MaxPasswordBytes)
	setInt(&c.Password.Workers, fc.Password.Workers)

	setBool(&c.RateLimit.Enabled, fc.RateLimit.Enabled)
	setInt(&c.RateLimit.MaxRequests, fc.RateLimit.MaxRequests)
	setDuration(&c.RateLimit.Window, fc.RateLimit.Window)
	setDuration(&c.RateLimit.CleanupInterval, fc.RateLimit.CleanupInterval)
	setInt(&c.RateLimit.MaxTrackedIPs, fc.RateLimit.MaxTrackedIPs)
	setBool(&c.RateLimit.TrustProxy, fc.RateLimit.TrustProxy)
	if fc.RateLimit.LoginPaths != nil {
		c.RateLimit.LoginPaths = append([]string(nil), fc.RateLimit.LoginPaths...)
	}

	setBool(&c.Audit.Enabled, fc.Audit.Enabled)
	setInt(&c.Audit.BufferSize, fc.Audit.BufferSize)
	setBool(&c.Audit.DropIfFull, fc.Audit.DropIfFull)

	setBool(&c.Metrics.Enabled, fc.Metrics.Enabled)
	setBool(&c.Metrics.EnableLatencyHistograms, fc.Metrics.LatencyHistograms)

	setBool(&c.AdminPathGuard.Enabled, fc.AdminPathGuard.Enabled)
	setString(&c.AdminPathGuard.Marker, fc.AdminPathGuard.Marker)

	setString(&s.Port, fc.Server.Port)
	setString(&s.RedisURL, fc.Server.RedisURL)

	if fc.Log.Level != nil {
		lvl, err := parseLevel(*fc.Log.Level)
		if err != nil {
			return configErr("log.level", err.Error())
		}
		s.LogLevel = lvl
	}
	if fc.Log.Format != nil {
		format, err := parseFormat(*fc.Log.Format)
		if err != nil {
			return configErr("log.format", err.Error())
		}
		s.LogFormat = format
	}
	return nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *time.Duration) {
	if src != nil {
		*dst = *src
	}
}

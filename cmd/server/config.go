package main

import (
	"time"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/internal/scrapers/studentcorner"
	"studentcorner-backend/internal/session"
)

type PortalConfig struct {
	BaseUrl           string  `json:"base_url"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

func (c PortalConfig) options(output telemetry.InstrumentOutput) studentcorner.Options {
	return studentcorner.Options{
		BaseUrl:           c.BaseUrl,
		CloudflareBypass:  c.CloudflareBypass,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		Output:            output,
	}
}

type OcrConfig struct {
	Endpoint       string `json:"endpoint"`
	ApiKey         string `json:"api_key"`
	Language       string `json:"language"`
	Engine         int    `json:"engine"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (c OcrConfig) options() captcha.OCRSpaceOptions {
	return captcha.OCRSpaceOptions{
		Endpoint: c.Endpoint,
		ApiKey:   c.ApiKey,
		Language: c.Language,
		Engine:   c.Engine,
		Timeout:  time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

type CaptchaConfig struct {
	// capped at 3
	MaxAttempts int `json:"max_attempts"`
	Length      int `json:"length"`
}

type SessionsConfig struct {
	Capacity int `json:"capacity"`
	// a negative value disables expiry, 0 is overwritten by the default
	IdleTimeoutMinutes int `json:"idle_timeout_minutes"`
}

func (c SessionsConfig) options() session.MemoryStoreOptions {
	return session.MemoryStoreOptions{
		Capacity:    c.Capacity,
		IdleTimeout: time.Duration(c.IdleTimeoutMinutes) * time.Minute,
	}
}

type Config struct {
	Port     int            `json:"port"`
	Portal   PortalConfig   `json:"portal"`
	Ocr      OcrConfig      `json:"ocr"`
	Captcha  CaptchaConfig  `json:"captcha"`
	Sessions SessionsConfig `json:"sessions"`
}

func defaultConfig() Config {
	return Config{
		Port: 8000,
		Portal: PortalConfig{
			BaseUrl:           studentcorner.DefaultBaseUrl,
			RequestsPerSecond: 2,
			TimeoutSeconds:    30,
		},
		Ocr: OcrConfig{
			TimeoutSeconds: 30,
		},
		Captcha: CaptchaConfig{
			MaxAttempts: 1,
			Length:      captcha.DefaultLength,
		},
		Sessions: SessionsConfig{
			Capacity:           2048,
			IdleTimeoutMinutes: 30,
		},
	}
}

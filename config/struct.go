package config

import "time"

type Config struct {
	// General configuration
	Env string `yaml:"env" mapstructure:"env" validate:"required,oneof=development test production"`
	Log Log    `yaml:"log" mapstructure:"log" validate:"required"`

	// SDK
	Platform  Platform  `yaml:"platform" mapstructure:"platform" validate:"required"`
	Transport Transport `yaml:"transport" mapstructure:"transport" validate:"required"`

	// Local gateway emulator
	Gateway Gateway `yaml:"gateway" mapstructure:"gateway" validate:"required"`
}

type Log struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" mapstructure:"format" validate:"oneof=json text"`
	AddSource bool   `yaml:"addSource" mapstructure:"addSource"`
}

// Platform points the SDK at the platform API gateway.
//
// In K8s: http://ciyex-api.ciyex-api.svc.cluster.local:8080
// Local dev: http://localhost:8080
type Platform struct {
	APIURL string `yaml:"apiUrl" mapstructure:"apiUrl" validate:"required,url"`
}

type Transport struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	RetryMax     int           `yaml:"retryMax" mapstructure:"retryMax" validate:"gte=0,lte=10"`
	RetryWaitMin time.Duration `yaml:"retryWaitMin" mapstructure:"retryWaitMin" validate:"gte=0"`
	RetryWaitMax time.Duration `yaml:"retryWaitMax" mapstructure:"retryWaitMax" validate:"gtefield=RetryWaitMin"`
}

type Gateway struct {
	Listen    string        `yaml:"listen" mapstructure:"listen" validate:"required"`
	PublicURL string        `yaml:"publicUrl" mapstructure:"publicUrl" validate:"required,url"`
	DBPath    string        `yaml:"dbPath" mapstructure:"dbPath" validate:"required"`
	JWTSecret string        `yaml:"jwtSecret" mapstructure:"jwtSecret"`
	MaxExpiry time.Duration `yaml:"maxExpiry" mapstructure:"maxExpiry" validate:"gte=1s"`
	Storage   Storage       `yaml:"storage" mapstructure:"storage" validate:"required"`
}

type Storage struct {
	Type  string       `yaml:"type" mapstructure:"type" validate:"required,oneof=local storj"`
	Local LocalStorage `yaml:"local" mapstructure:"local"`
	Storj StorjStorage `yaml:"storj" mapstructure:"storj"`
}

type LocalStorage struct {
	Root string `yaml:"root" mapstructure:"root"`
}

type StorjStorage struct {
	AccessGrant string `yaml:"accessGrant" mapstructure:"accessGrant"`
	Bucket      string `yaml:"bucket" mapstructure:"bucket"`
}

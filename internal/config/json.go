package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-friendly durations ("45s", "5m") for the optional config file.
type StructuredJSONConfig struct {
	Remote struct {
		BaseURL        string   `json:"base_url"`
		Token          string   `json:"token"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"remote,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Engine struct {
		SyncInterval  Duration `json:"sync_interval"`
		ProbeInterval Duration `json:"probe_interval"`
		BackoffBase   Duration `json:"backoff_base"`
		BackoffCap    Duration `json:"backoff_cap"`
		MaxAttempts   int      `json:"max_attempts"`
	} `json:"engine,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Remote: Remote{
			BaseURL:        jsonCfg.Remote.BaseURL,
			Token:          jsonCfg.Remote.Token,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Engine: Engine{
			SyncInterval:  time.Duration(jsonCfg.Engine.SyncInterval),
			ProbeInterval: time.Duration(jsonCfg.Engine.ProbeInterval),
			BackoffBase:   time.Duration(jsonCfg.Engine.BackoffBase),
			BackoffCap:    time.Duration(jsonCfg.Engine.BackoffCap),
			MaxAttempts:   jsonCfg.Engine.MaxAttempts,
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

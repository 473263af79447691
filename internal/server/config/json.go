package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is the DTO used only for reading a JSON configuration file.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "48h" and integer nanoseconds. After unmarshalling,
// the provided fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	StoreBackend          string         `json:"store_backend"`
	DatabaseDSN           string         `json:"database_dsn"`
	UsersTable            string         `json:"users_table"`
	EmailIndexName        string         `json:"email_index_name"`
	AWSRegion             string         `json:"aws_region"`
	AWSBaseEndpoint       string         `json:"aws_base_endpoint"`
	AWSAccessKey          string         `json:"aws_access_key"`
	AWSSecretKey          string         `json:"aws_secret_key"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	BcryptCost            int            `json:"bcrypt_cost"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; if
// neither is set, no JSON file is loaded. Absent fields keep their current
// values. If the file cannot be read or contains invalid JSON, the function
// panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.StoreBackend != "" {
		config.StoreBackend = c.StoreBackend
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.UsersTable != "" {
		config.UsersTable = c.UsersTable
	}
	if c.EmailIndexName != "" {
		config.EmailIndexName = c.EmailIndexName
	}
	if c.AWSRegion != "" {
		config.AWSRegion = c.AWSRegion
	}
	if c.AWSBaseEndpoint != "" {
		config.AWSBaseEndpoint = c.AWSBaseEndpoint
	}
	if c.AWSAccessKey != "" {
		config.AWSAccessKey = c.AWSAccessKey
	}
	if c.AWSSecretKey != "" {
		config.AWSSecretKey = c.AWSSecretKey
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}

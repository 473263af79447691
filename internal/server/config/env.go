package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration values from environment variables.
// Variables that are unset keep the current value.
//
// Recognized variables:
//
//	ADDRESS         HTTP bind address
//	STORE_BACKEND   dynamo | postgres | memory
//	DATABASE_DSN    PostgreSQL DSN
//	USERS_TABLE     DynamoDB table name
//	EMAIL_INDEX     DynamoDB email index name
//	AWS_REGION      DynamoDB region
//	AWS_ENDPOINT    DynamoDB base endpoint (local/emulated stores)
//	JWT_SECRET      token signing secret
//	TOKEN_VALIDITY  token lifetime, e.g. "48h"
//	BCRYPT_COST     password hashing work factor
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("ADDRESS"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("STORE_BACKEND"); ok {
		config.StoreBackend = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("USERS_TABLE"); ok {
		config.UsersTable = v
	}
	if v, ok := os.LookupEnv("EMAIL_INDEX"); ok {
		config.EmailIndexName = v
	}
	if v, ok := os.LookupEnv("AWS_REGION"); ok {
		config.AWSRegion = v
	}
	if v, ok := os.LookupEnv("AWS_ENDPOINT"); ok {
		config.AWSBaseEndpoint = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("TOKEN_VALIDITY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidityDuration = d
		}
	}
	if v, ok := os.LookupEnv("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
}

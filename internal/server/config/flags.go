package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-b string   store backend: dynamo, postgres, or memory
//	-d string   PostgreSQL DSN
//	-t string   DynamoDB users table name
//	-i string   DynamoDB email index name
//	-g string   AWS region
//	-e string   AWS base endpoint (for local DynamoDB)
//	-s string   token signing secret
//	-v int      token validity, hours
//	-w int      bcrypt work factor
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. The validity
// flag is accepted as an integer number of hours and converted to a
// time.Duration; it only overrides the current value when actually passed,
// so finer-grained durations from the file or environment layers survive.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-d", "-t", "-i", "-g", "-e", "-s", "-v", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend (dynamo, postgres, memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.UsersTable, "t", config.UsersTable, "users table name")
	fs.StringVar(&config.EmailIndexName, "i", config.EmailIndexName, "email index name")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSBaseEndpoint, "e", config.AWSBaseEndpoint, "AWS base endpoint")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")

	tokenValidity := fs.Int("v", int(config.TokenValidityDuration.Hours()), "token_validity_duration (in hours)")
	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt work factor")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "v" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
		}
	})
}

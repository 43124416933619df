package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a facade listen address in format [host]:[port]
//	-r remote persistence API base URL
//	-t remote bearer token
//	-d local SQLite database path
//	-c/-config json file path with configs
//	-sync-interval background sync interval (e.g., "45s")
//	-request-timeout outbound request timeout (e.g., "30s")
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var remoteBaseURL string
	var remoteToken string
	var databaseDSN string
	var jsonConfigPath string
	var syncInterval time.Duration
	var requestTimeout time.Duration

	flag.Var(&serverAddress, "a", "Facade net address host:port")
	flag.StringVar(&remoteBaseURL, "r", "", "Remote API base URL")
	flag.StringVar(&remoteToken, "t", "", "Remote API bearer token")
	flag.StringVar(&databaseDSN, "d", "", "Local SQLite database path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g., 45s)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Outbound request timeout (e.g., 30s)")

	flag.Parse()

	return &StructuredConfig{
		Remote: Remote{
			BaseURL:        remoteBaseURL,
			Token:          remoteToken,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Engine: Engine{
			SyncInterval: syncInterval,
		},
		Server: Server{
			HTTPAddress: serverAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string so the merge
// falls through to the next source.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

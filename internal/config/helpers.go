package config

import (
	"net"
	"strconv"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// GetGRPCAddress returns the gRPC listen address, empty when gRPC is disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.GRPCPort))
}

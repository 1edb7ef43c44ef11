package config

import "fmt"

// ServerConfig holds the HTTP API settings used by the serve command.
type ServerConfig struct {
	Address string `json:"address"`
	// MaxTasks rejects solve requests with more tasks. Zero means no limit.
	MaxTasks int `json:"max_tasks"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

func (c ServerConfig) Validate() error {
	if c.MaxTasks < 0 {
		return fmt.Errorf("max_tasks must not be negative")
	}
	return nil
}

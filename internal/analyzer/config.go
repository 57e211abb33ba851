package analyzer

import "github.com/codemapper/codemap/internal/interact"

// Config is the configuration record consumed by a run. Parsing config
// files is the caller's concern; the core only reads this struct.
type Config struct {
	Include          []string        `json:"include,omitempty"`
	Exclude          []string        `json:"exclude,omitempty"`
	MaxFiles         int             `json:"maxFiles,omitempty"`
	MaxFileSizeKB    int             `json:"maxFileSizeKB,omitempty"`
	Concurrency      int             `json:"concurrency,omitempty"`
	OnlyFiles        []string        `json:"onlyFiles,omitempty"`
	InteractionRules []interact.Rule `json:"interactionRules,omitempty"`
	Strict           bool            `json:"strict,omitempty"`
	Diagnostics      bool            `json:"diagnostics,omitempty"`
}

const (
	defaultConcurrency = 4
	maxConcurrency     = 32
)

// workers returns the clamped worker count.
func (c *Config) workers() int {
	n := c.Concurrency
	if n == 0 {
		n = defaultConcurrency
	}
	if n < 1 {
		n = 1
	}
	if n > maxConcurrency {
		n = maxConcurrency
	}
	return n
}

// Package cli implements the stackadvisor command-line interface.
//
// # Commands
//
//   - advise: resolve a Pipfile or requirements file into recommended stacks
//   - serve: run the HTTP API
//   - report: show a saved advise report
//   - cache: manage the knowledge base response cache
//   - completion: generate shell completion scripts
//
// All commands support --verbose (-v) for debug-level logging.
//
// # Environment
//
//   - XDG_CACHE_HOME: cache directory root
//   - STACKADVISOR_REDIS_URL: use Redis instead of the file cache
//   - STACKADVISOR_MONGO_URI: query a MongoDB knowledge base instead of PyPI
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackadvisor/pkg/buildinfo"
	"github.com/matzehuels/stackadvisor/pkg/cache"
)

const (
	// appName is the application name used for directories and display.
	appName = "stackadvisor"

	envRedisURL = "STACKADVISOR_REDIS_URL"
	envMongoURI = "STACKADVISOR_MONGO_URI"
	envMongoDB  = "STACKADVISOR_MONGO_DB"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stackadvisor recommends Python dependency stacks",
		Long: `Stackadvisor resolves a Pipfile or requirements file into fully pinned
dependency stacks, scored by security, stability and performance knowledge,
using a beam search over partially resolved states.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.adviseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stackadvisor/).
func cacheDir() (string, error) {
	return cache.DefaultDir()
}

// redisURL returns the configured Redis URL, if any.
func redisURL() string {
	return os.Getenv(envRedisURL)
}

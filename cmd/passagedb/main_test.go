package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/passagedb/core"
)

func contextWithLogLevel(level string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", level, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger(t *testing.T) {
	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
			err := setupLogger(contextWithLogLevel(level))
			require.NoError(t, err, "level %q", level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := setupLogger(contextWithLogLevel("verbose"))
		assert.Error(t, err)
	})
}

func TestJoinCategories(t *testing.T) {
	assert.Equal(t, "", joinCategories(nil))
	assert.Equal(t, "indemnity, termination",
		joinCategories([]core.Category{core.CategoryIndemnity, core.CategoryTermination}))
}

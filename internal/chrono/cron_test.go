package chrono

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandardCron(t *testing.T) {
	c := NewStandardCron()

	err := c.Cron("not a cron spec", func() {})
	require.Error(t, err)

	err = c.Cron("0 2 * * *", func() {})
	require.NoError(t, err)
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("sqlite in memory", func(t *testing.T) {
		db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", db.Dialector.Name())
	})

	t.Run("unreachable mysql", func(t *testing.T) {
		db, err := Connect(Config{
			Driver:         "mysql",
			Host:           "127.0.0.1",
			Port:           9999,
			User:           "root",
			Password:       "p@ss/word",
			Name:           "tracks",
			TimeoutSeconds: 1,
		})
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Connect(Config{Driver: "oracle"})
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}

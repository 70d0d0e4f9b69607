package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "valstore.db", c.Database.Path)
	assert.Equal(t, ":8780", c.Server.Addr)
	assert.False(t, c.Log.JSON)
}

func TestValidateRejectsEmptyPath(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("database.path", "")

	_, err := LoadWithViper(v)
	assert.Error(t, err)
}

func TestValidateRejectsNegativeVerbosity(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("log.verbosity", -1)

	_, err := LoadWithViper(v)
	assert.Error(t, err)
}

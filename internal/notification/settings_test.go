package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/handsoff-go/internal/conf"
	"github.com/tphakala/handsoff-go/internal/errors"
)

func TestNewServiceFromSettingsLogOnly(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Notification.Cooldown = time.Minute

	s, err := NewServiceFromSettings(settings, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	require.Len(t, s.providers, 1)
	assert.Equal(t, "log", s.providers[0].GetName())
	assert.Equal(t, time.Minute, s.cfg.Cooldown)
}

func TestNewServiceFromSettingsWithPush(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Notification.Push.URLs = []string{"logger://"}

	s, err := NewServiceFromSettings(settings, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	require.Len(t, s.providers, 2)
	assert.Equal(t, "shoutrrr", s.providers[1].GetName())
	assert.Equal(t, DefaultCooldown, s.cfg.Cooldown)
}

func TestNewServiceFromSettingsInvalidPush(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Notification.Push.URLs = []string{"nosuchservice://token"}

	_, err := NewServiceFromSettings(settings, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

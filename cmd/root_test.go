package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/handsoff-go/internal/conf"
)

func TestConfigFileFromArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"absent", []string{"realtime", "--debug"}, ""},
		{"separate value", []string{"--config", "/etc/handsoff.yaml", "realtime"}, "/etc/handsoff.yaml"},
		{"equals form", []string{"realtime", "--config=cfg.yaml"}, "cfg.yaml"},
		{"missing value", []string{"realtime", "--config"}, ""},
		{"after terminator", []string{"realtime", "--", "--config=cfg.yaml"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ConfigFileFromArgs(tt.args))
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	root := RootCommand(&conf.Settings{Version: "test"})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"realtime", "notify", "playsound", "config"})
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestConfigCommandPrintsSettings(t *testing.T) {
	settings := &conf.Settings{}
	settings.Classifier = conf.ClassifierSettings{K: 10, Metric: "euclidean"}
	settings.Alert.Title = "Hands off"

	root := RootCommand(settings)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "metric: euclidean")
	assert.Contains(t, out.String(), "title: Hands off")
}

package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/price-visibility-booster/internal/transport"
)

func testConfig() *Config {
	return &Config{
		MerchantID:   "12345",
		APIBaseURL:   DefaultAPIBaseURL,
		AuthMethod:   "none",
		RulesFile:    DefaultRulesFile,
		OutputDir:    DefaultOutputDir,
		DatabasePath: DefaultDatabasePath,
		LogFormat:    "auto",
		LogOutput:    "stderr",
	}
}

func TestNewAppliesOptions(t *testing.T) {
	a, err := New("1.2.3", "abc", "today", "tests", WithConfig(testConfig()))
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", a.Version())
	assert.Equal(t, "12345", a.Config().MerchantID)
	assert.NotNil(t, a.Logger())
}

func TestAuthenticatorSelection(t *testing.T) {
	tests := []struct {
		method  string
		want    any
		wantErr bool
	}{
		{method: "none", want: &transport.NoAuth{}},
		{method: "token", want: &transport.StaticToken{}},
		{method: "adc", want: &transport.ADC{}},
		{method: "oauth-dance", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			config := testConfig()
			config.AuthMethod = tt.method
			a := &App{config: config}

			got, err := a.Authenticator()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	a, err := New("1.2.3", "abc", "today", "tests", WithConfig(testConfig()))
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := a.CreateVersionCommand()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Equal(t, "pricebooster 1.2.3\n", out.String())
}

func TestVersionCommandVerbose(t *testing.T) {
	config := testConfig()
	config.Verbose = true
	a, err := New("1.2.3", "abc", "today", "tests", WithConfig(config))
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := a.CreateVersionCommand()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Contains(t, out.String(), "commit:   abc")
	assert.Contains(t, out.String(), "built by: tests")
}

func TestPrepareRequiresMerchantID(t *testing.T) {
	config := testConfig()
	config.MerchantID = ""
	a := &App{config: config}

	_, _, err := a.prepare("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merchant_id")
}

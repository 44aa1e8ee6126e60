package serve_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/cmd/cli/serve"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/server"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/services"
)

const (
	testSectionKeyConstant         = "server"
	testConfiguredAddressConstant  = "127.0.0.1:9090"
	testFlagAddressConstant        = "127.0.0.1:9191"
	healthPathConstant             = "/healthz"
	standardsPathConstant          = "/api/standards"
	listenerFailureMessageConstant = "listener failed"
)

type capturedListen struct {
	address string
	server  *server.Server
	calls   int
}

func newBuilder(configuration serve.CommandConfiguration, captured *capturedListen, listenError error) *serve.CommandBuilder {
	return &serve.CommandBuilder{
		ServicesProvider: func(executionContext context.Context) (*services.Services, error) {
			return services.Open(executionContext, services.Configuration{}, services.Dependencies{})
		},
		ConfigurationProvider: func() serve.CommandConfiguration { return configuration },
		IdentityProvider:      func() string { return "auditor-1" },
		Listener: func(executionContext context.Context, httpServer *server.Server, address string) error {
			captured.calls++
			captured.address = address
			captured.server = httpServer
			return listenError
		},
	}
}

func execute(testInstance *testing.T, builder *serve.CommandBuilder, arguments ...string) error {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(output)
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	return command.Execute()
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	defaults := serve.DefaultConfigurationValues(testSectionKeyConstant)
	require.Equal(testInstance, ":8080", defaults["server.address"])
	require.Equal(testInstance, "5s", defaults["server.shutdown_timeout"])
}

func TestServeResolvesAddress(testInstance *testing.T) {
	testCases := []struct {
		name            string
		configuration   serve.CommandConfiguration
		arguments       []string
		expectedAddress string
	}{
		{
			name:            "configured_address",
			configuration:   serve.CommandConfiguration{Address: testConfiguredAddressConstant, ShutdownTimeout: time.Second},
			expectedAddress: testConfiguredAddressConstant,
		},
		{
			name:            "flag_overrides_configuration",
			configuration:   serve.CommandConfiguration{Address: testConfiguredAddressConstant},
			arguments:       []string{"--address", testFlagAddressConstant},
			expectedAddress: testFlagAddressConstant,
		},
		{
			name:            "blank_address_uses_default",
			configuration:   serve.CommandConfiguration{Address: "  "},
			expectedAddress: ":8080",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			captured := &capturedListen{}
			require.NoError(subTest, execute(subTest, newBuilder(testCase.configuration, captured, nil), testCase.arguments...))
			require.Equal(subTest, 1, captured.calls)
			require.Equal(subTest, testCase.expectedAddress, captured.address)
			require.NotNil(subTest, captured.server)
		})
	}
}

func TestServeBuildsWorkingHandler(testInstance *testing.T) {
	captured := &capturedListen{}
	require.NoError(testInstance, execute(testInstance, newBuilder(serve.CommandConfiguration{}, captured, nil)))

	for _, path := range []string{healthPathConstant, standardsPathConstant} {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, path, nil)
		captured.server.Handler().ServeHTTP(recorder, request)
		require.Equal(testInstance, http.StatusOK, recorder.Code, path)
	}
}

func TestServeFailures(testInstance *testing.T) {
	listenFailure := errors.New(listenerFailureMessageConstant)
	captured := &capturedListen{}
	require.ErrorIs(testInstance, execute(testInstance, newBuilder(serve.CommandConfiguration{}, captured, listenFailure)), listenFailure)

	unconfigured := &serve.CommandBuilder{}
	require.Error(testInstance, execute(testInstance, unconfigured))

	failingServices := &serve.CommandBuilder{
		ServicesProvider: func(context.Context) (*services.Services, error) {
			return nil, listenFailure
		},
	}
	require.ErrorIs(testInstance, execute(testInstance, failingServices), listenFailure)

	require.Error(testInstance, execute(testInstance, newBuilder(serve.CommandConfiguration{}, captured, nil), "extra"))
}

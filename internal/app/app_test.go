// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/app"
	"github.com/JakeFAU/reddit-content-fetcher/internal/config"
	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
)

// MockSource mocks a closable reddit.ContentSource.
type MockSource struct {
	mock.Mock
}

// Name satisfies reddit.ContentSource.
func (m *MockSource) Name() string {
	return m.Called().String(0)
}

// Fetch satisfies reddit.ContentSource.
func (m *MockSource) Fetch(ctx context.Context, ref reddit.PostReference) (reddit.FetchResult, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(reddit.FetchResult), args.Error(1)
}

// Close lets the app release the source.
func (m *MockSource) Close() {
	m.Called()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewApp_Success(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: html
  comment_limit: 5
logging:
  development: false
`)

	a, err := app.NewApp(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, a)
	defer a.Close()

	assert.NotNil(t, a.GetLogger())
	assert.Equal(t, "html", a.GetSource().Name())
	assert.Equal(t, 5, a.GetConfig().Source.CommentLimit)
	assert.Equal(t, 8000, a.GetConfig().Server.Port)
}

func TestNewApp_ConfigErrors(t *testing.T) {
	testCases := []struct {
		name          string
		config        string
		expectedError string
	}{
		{
			name:          "unknown source kind",
			config:        "source:\n  kind: pigeon\n",
			expectedError: "source.kind must be one of",
		},
		{
			name:          "comment limit above cap",
			config:        "source:\n  comment_limit: 25\n",
			expectedError: "source.comment_limit must be between 1 and 10",
		},
		{
			name:          "unparseable file",
			config:        "server: [",
			expectedError: "read config",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := app.NewApp(context.Background(), writeConfig(t, tc.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}

func TestNewWithConfig_UnknownKind(t *testing.T) {
	_, err := app.NewWithConfig(config.Config{Source: config.SourceConfig{Kind: "nope"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init content source")
}

func TestApp_Close(t *testing.T) {
	src := new(MockSource)
	src.On("Close").Return().Once()

	a := &app.App{
		Logger: zap.NewNop(),
		Source: src,
	}

	a.Close()

	src.AssertExpectations(t)
}

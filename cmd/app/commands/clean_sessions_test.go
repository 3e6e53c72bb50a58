package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMaintenanceUseCase struct {
	mock.Mock
}

func (m *mockMaintenanceUseCase) CleanSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMaintenanceUseCase) CleanAuthorizationCodes(
	ctx context.Context,
	createdBefore time.Time,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, createdBefore, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMaintenanceUseCase) Start(ctx context.Context) {
	m.Called(ctx)
}

func TestRunCleanSessions(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &mockMaintenanceUseCase{}
		mockUseCase.On("CleanSessions", ctx).Return(int64(7), nil)

		var out bytes.Buffer
		err := RunCleanSessions(ctx, mockUseCase, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Successfully deleted 7 expired session(s)")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &mockMaintenanceUseCase{}
		mockUseCase.On("CleanSessions", ctx).Return(int64(3), nil)

		var out bytes.Buffer
		err := RunCleanSessions(ctx, mockUseCase, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 3`)
		mockUseCase.AssertExpectations(t)
	})
}

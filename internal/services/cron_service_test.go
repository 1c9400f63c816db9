package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCronTestLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(buf)
	return logger, buf
}

func TestCronService_AddCleanupAndRunNow(t *testing.T) {
	logger, buf := newCronTestLogger()
	svc := NewCronService(logger)

	calls := 0
	err := svc.AddCleanup("refresh_tokens", RefreshTokenCleanupSchedule, func(ctx context.Context) (int64, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunNow("refresh_tokens"))
	assert.Equal(t, 1, calls)
	assert.Contains(t, buf.String(), `"deleted":7`)
	assert.Contains(t, buf.String(), "Maintenance job finished")
}

func TestCronService_FailedJobIsLogged(t *testing.T) {
	logger, buf := newCronTestLogger()
	svc := NewCronService(logger)

	require.NoError(t, svc.AddCleanup("login_attempts", LoginAttemptCleanupSchedule, func(ctx context.Context) (int64, error) {
		return 0, errors.New("connection reset")
	}))

	require.NoError(t, svc.RunNow("login_attempts"))
	assert.Contains(t, buf.String(), "Maintenance job failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestCronService_AddCleanupErrors(t *testing.T) {
	logger, _ := newCronTestLogger()
	svc := NewCronService(logger)
	noop := func(ctx context.Context) (int64, error) { return 0, nil }

	assert.Error(t, svc.AddCleanup("bad", "every now and then", noop))

	require.NoError(t, svc.AddCleanup("tokens", RefreshTokenCleanupSchedule, noop))
	assert.Error(t, svc.AddCleanup("tokens", RefreshTokenCleanupSchedule, noop))

	assert.Error(t, svc.RunNow("missing"))
}

func TestCronService_StartStop(t *testing.T) {
	logger, _ := newCronTestLogger()
	svc := NewCronService(logger)
	require.NoError(t, svc.AddCleanup("tokens", RefreshTokenCleanupSchedule, func(ctx context.Context) (int64, error) {
		return 0, nil
	}))

	svc.Start()
	status := svc.JobStatus()
	svc.Stop()

	assert.Equal(t, 1, status["job_count"])
	jobs := status["jobs"].([]map[string]interface{})
	require.Len(t, jobs, 1)
	assert.Equal(t, "tokens", jobs[0]["name"])
}

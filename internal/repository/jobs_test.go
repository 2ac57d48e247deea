package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hakote/Hakote/internal/model"
)

func setupJobs(t *testing.T) (*Jobs, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := openMock(t)
	jobs := NewJobs(gdb)
	jobs.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return jobs, mock
}

func TestJobsInsert(t *testing.T) {
	jobs, mock := setupJobs(t)
	mock.ExpectExec("INSERT INTO `cron_jobs`").WillReturnResult(sqlmock.NewResult(0, 1))

	job := &model.CronJob{Type: model.JobTypeSendDailyEmail, Status: model.JobPending, MaxRetries: 3}
	require.NoError(t, jobs.Insert(context.Background(), job))
	assert.NotEmpty(t, job.ID)
}

func TestJobsNextPending(t *testing.T) {
	jobs, mock := setupJobs(t)

	rows := sqlmock.NewRows([]string{"id", "type", "status", "created_at", "retry_count", "max_retries"}).
		AddRow("job-1", model.JobTypeSendDailyEmail, model.JobPending, fixedNow, 1, 3)
	mock.ExpectQuery("SELECT \\* FROM `cron_jobs` WHERE type = \\? AND status = \\? ORDER BY created_at").
		WillReturnRows(rows)

	job, err := jobs.NextPending(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, 1, job.RetryCount)
}

func TestJobsNextPendingNone(t *testing.T) {
	jobs, mock := setupJobs(t)
	mock.ExpectQuery("SELECT \\* FROM `cron_jobs`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	job, err := jobs.NextPending(context.Background())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestJobsClaim(t *testing.T) {
	jobs, mock := setupJobs(t)
	mock.ExpectExec("UPDATE `cron_jobs` SET .*WHERE id = \\? AND status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `cron_jobs` SET .*WHERE id = \\? AND status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := jobs.Claim(context.Background(), "job-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = jobs.Claim(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")
}

func TestJobsCompleteAndFail(t *testing.T) {
	jobs, mock := setupJobs(t)
	mock.ExpectExec("UPDATE `cron_jobs` SET .*`status`=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `cron_jobs` SET .*`error_message`=").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, jobs.Complete(context.Background(), "job-1"))
	require.NoError(t, jobs.Fail(context.Background(), "job-1", "no active problems"))
}

func TestJobsRetry(t *testing.T) {
	jobs, mock := setupJobs(t)
	mock.ExpectExec("UPDATE `cron_jobs` SET .*retry_count \\+ 1.*WHERE id = \\? AND retry_count < max_retries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `cron_jobs` SET .*WHERE id = \\? AND retry_count < max_retries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := jobs.Retry(context.Background(), "job-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = jobs.Retry(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	listColumns         = []string{"id", "name", "is_active", "created_at"}
	subscriberColumns   = []string{"id", "email", "frequency", "is_active", "unsubscribe_token", "resubscribe_count"}
	subscriptionColumns = []string{"id", "subscriber_id", "problem_list_id", "frequency", "is_active", "resubscribe_count"}
)

func TestSubscribeCreatesSubscriberAndSubscription(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `problem_lists` WHERE is_active = \\? AND id IN \\(\\?\\) ORDER BY name").
		WithArgs(true, "list-1").
		WillReturnRows(sqlmock.NewRows(listColumns).AddRow("list-1", "Basic", true, fixedNow))
	mock.ExpectQuery("SELECT \\* FROM `subscribers` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows(subscriberColumns))
	mock.ExpectExec("INSERT INTO `subscribers`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM `subscriptions` WHERE subscriber_id = \\? AND problem_list_id = \\?").
		WillReturnRows(sqlmock.NewRows(subscriptionColumns))
	mock.ExpectExec("INSERT INTO `subscriptions`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Subscribe(context.Background(), SubscribeInput{
		Email:          "  New.User@Example.COM ",
		Frequency:      "3x",
		ProblemListIDs: []string{"list-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", res.Subscriber.Email)
	assert.True(t, res.Subscriber.IsActive)
	assert.NotEmpty(t, res.Subscriber.ID)
	assert.NotEmpty(t, res.Subscriber.UnsubscribeToken)
	require.Len(t, res.Subscriptions, 1)
	assert.Equal(t, "list-1", res.Subscriptions[0].ProblemListID)
	assert.Equal(t, res.Subscriber.ID, res.Subscriptions[0].SubscriberID)
	assert.Equal(t, 0, res.Subscriptions[0].ResubscribeCount)
}

func TestSubscribeReactivates(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `problem_lists`").
		WillReturnRows(sqlmock.NewRows(listColumns).AddRow("list-1", "Basic", true, fixedNow))
	mock.ExpectQuery("SELECT \\* FROM `subscribers` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows(subscriberColumns).AddRow("u-1", "old@example.com", "2x", false, "tok", 0))
	mock.ExpectExec("UPDATE `subscribers` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM `subscriptions`").
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).AddRow("sub-1", "u-1", "list-1", "2x", false, 2))
	mock.ExpectExec("UPDATE `subscriptions` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Subscribe(context.Background(), SubscribeInput{Email: "old@example.com", Frequency: "5x"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Subscriber.ResubscribeCount)
	assert.Equal(t, "5x", res.Subscriber.Frequency)
	require.NotNil(t, res.Subscriber.LastResubscribedAt)
	assert.Equal(t, fixedNow, *res.Subscriber.LastResubscribedAt)

	require.Len(t, res.Subscriptions, 1)
	assert.Equal(t, "sub-1", res.Subscriptions[0].ID)
	assert.Equal(t, 3, res.Subscriptions[0].ResubscribeCount)
	assert.True(t, res.Subscriptions[0].IsActive)
}

func TestSubscribeUnknownList(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `problem_lists`").
		WillReturnRows(sqlmock.NewRows(listColumns).AddRow("list-1", "Basic", true, fixedNow))
	mock.ExpectRollback()

	_, err := repo.Subscribe(context.Background(), SubscribeInput{
		Email:          "a@example.com",
		Frequency:      "2x",
		ProblemListIDs: []string{"list-1", "list-9"},
	})
	assert.ErrorIs(t, err, ErrUnknownProblemList)
}

func TestUnsubscribeSubscription(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT s.id, pl.name AS problem_list_name FROM subscriptions AS s JOIN problem_lists pl").
		WillReturnRows(sqlmock.NewRows([]string{"id", "problem_list_name"}).AddRow("sub-1", "Blind 75"))
	mock.ExpectExec("UPDATE `subscriptions` SET .*`is_active`=.*WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	name, err := repo.UnsubscribeSubscription(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Blind 75", name)
}

func TestUnsubscribeSubscriptionNotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("FROM subscriptions AS s").
		WillReturnRows(sqlmock.NewRows([]string{"id", "problem_list_name"}))

	_, err := repo.UnsubscribeSubscription(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnsubscribeByToken(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `subscribers` WHERE unsubscribe_token = \\?").
		WillReturnRows(sqlmock.NewRows(subscriberColumns).AddRow("u-1", "a@example.com", "3x", true, "tok", 0))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `subscribers` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `subscriptions` SET .*WHERE subscriber_id = \\? AND is_active = \\?").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.UnsubscribeByToken(context.Background(), "tok"))
}

func TestUnsubscribeByTokenNotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `subscribers`").WillReturnRows(sqlmock.NewRows(subscriberColumns))

	assert.ErrorIs(t, repo.UnsubscribeByToken(context.Background(), "nope"), ErrNotFound)
}

func TestListProblemLists(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `problem_lists` WHERE is_active = \\? ORDER BY name").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(listColumns).
			AddRow("list-2", "Basic", true, fixedNow).
			AddRow("list-1", "Blind 75", true, fixedNow))

	lists, err := repo.ListProblemLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Basic", lists[0].Name)
}

func TestSubscriptionStats(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT s.frequency, COUNT\\(\\*\\) AS count FROM subscriptions AS s .*GROUP BY .*frequency").
		WillReturnRows(sqlmock.NewRows([]string{"frequency", "count"}).
			AddRow("3x", 4).
			AddRow("5x", 2))

	stats, err := repo.SubscriptionStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, map[string]int64{"2x": 0, "3x": 4, "5x": 2}, stats.Frequency)
}

func TestProblemOfTheDay(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `problems` WHERE active = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT \\* FROM `problems` WHERE active = \\? ORDER BY week IS NULL, week, created_at LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("p-2", "Contains Duplicate"))

	// 20250901 % 3 == 1
	p, err := repo.ProblemOfTheDay(context.Background(), 20250901)
	require.NoError(t, err)
	assert.Equal(t, "p-2", p.ID)
}

func TestProblemOfTheDayEmpty(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `problems`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := repo.ProblemOfTheDay(context.Background(), 20250901)
	assert.ErrorIs(t, err, ErrNotFound)
}

package database

import (
	"context"
	"testing"
	"time"

	"pitline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyQueue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	task := &models.NotifyTask{
		TaskType:      "appointment_created",
		AppointmentID: 7,
		Payload:       `{"appointment_id":7}`,
		Status:        "pending",
	}
	require.NoError(t, db.CreateNotifyTask(ctx, task))
	assert.NotZero(t, task.ID)

	t.Run("PendingVisible", func(t *testing.T) {
		tasks, err := db.GetPendingNotifyTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.ID, tasks[0].ID)
		assert.Equal(t, "appointment_created", tasks[0].TaskType)
	})

	t.Run("RetryNotDueIsHidden", func(t *testing.T) {
		later := time.Now().Add(time.Hour)
		require.NoError(t, db.UpdateNotifyTaskStatus(ctx, task.ID, "retry", "telegram timeout", &later))

		tasks, err := db.GetPendingNotifyTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("RetryDueIsVisible", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		require.NoError(t, db.UpdateNotifyTaskStatus(ctx, task.ID, "retry", "telegram timeout", &past))

		tasks, err := db.GetPendingNotifyTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, 2, tasks[0].RetryCount)
		require.NotNil(t, tasks[0].LastError)
		assert.Equal(t, "telegram timeout", *tasks[0].LastError)
	})

	t.Run("CompletedLeavesQueue", func(t *testing.T) {
		require.NoError(t, db.UpdateNotifyTaskStatus(ctx, task.ID, "completed", "", nil))

		tasks, err := db.GetPendingNotifyTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("FailedIsListed", func(t *testing.T) {
		failed := &models.NotifyTask{TaskType: "appointment_created", AppointmentID: 8, Payload: "{}", Status: "pending"}
		require.NoError(t, db.CreateNotifyTask(ctx, failed))
		require.NoError(t, db.UpdateNotifyTaskStatus(ctx, failed.ID, "failed", "gave up", nil))

		tasks, err := db.GetFailedNotifyTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, failed.ID, tasks[0].ID)
		assert.NotNil(t, tasks[0].ProcessedAt)
	})
}
